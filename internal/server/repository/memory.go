package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	"github.com/sirupsen/logrus"
)

// TicketsState manages tickets in memory and persists them to a file.
type TicketsState struct {
	BatchBuffer     map[string]*models.Ticket `json:"batchBuffer"` // In-memory store of tickets by id.
	storageFilePath string                    // File path for persisting tickets.
	mu              *sync.RWMutex             // Protects BatchBuffer from concurrent access
}

// NewTicketsState creates a new TicketsState instance with an empty memory buffer.
// Arguments:
//   - storagePath: file path where tickets are persisted.
//
// Returns a pointer to a TicketsState.
func NewTicketsState(storagePath string) *TicketsState {
	return &TicketsState{
		BatchBuffer:     make(map[string]*models.Ticket),
		storageFilePath: storagePath,
		mu:              &sync.RWMutex{},
	}
}

// Create stores a copy of ticket.
// Returns ErrDuplicate if the id is already taken.
func (m *TicketsState) Create(_ context.Context, ticket *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.BatchBuffer[ticket.ID]; ok {
		return fmt.Errorf("create ticket %s: %w", ticket.ID, ErrDuplicate)
	}
	m.BatchBuffer[ticket.ID] = ticket.Clone()
	return nil
}

// Get returns a copy of the ticket with id.
// Returns ErrNotFound if there is none.
func (m *TicketsState) Get(_ context.Context, id string) (*models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.BatchBuffer[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

// List returns the page of tickets selected by filter, newest first, and the
// number of tickets matching the filter before paging.
func (m *TicketsState) List(_ context.Context, filter models.TicketFilter) ([]*models.Ticket, int, error) {
	m.mu.RLock()
	matched := make([]*models.Ticket, 0, len(m.BatchBuffer))
	for _, t := range m.BatchBuffer {
		if filter.Match(t) {
			matched = append(matched, t.Clone())
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(matched)
	return page(matched, filter), len(matched), nil
}

// Update replaces the stored ticket with the same id.
// Returns ErrNotFound if there is none.
func (m *TicketsState) Update(_ context.Context, ticket *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.BatchBuffer[ticket.ID]; !ok {
		return ErrNotFound
	}
	m.BatchBuffer[ticket.ID] = ticket.Clone()
	return nil
}

// Delete removes the ticket with id.
// Returns ErrNotFound if there is none.
func (m *TicketsState) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.BatchBuffer[id]; !ok {
		return ErrNotFound
	}
	delete(m.BatchBuffer, id)
	return nil
}

// Ping always succeeds; the memory store has no connection to lose.
func (m *TicketsState) Ping(_ context.Context) error {
	return nil
}

// ReadFileToMemory reads tickets from the storage file into the in-memory buffer.
// A missing or empty file leaves the buffer empty.
// Returns an error if the file cannot be read or parsed.
func (m *TicketsState) ReadFileToMemory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.storageFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("Storage file %s does not exist, starting with empty buffer", m.storageFilePath)
			return nil
		}
		err = fmt.Errorf("failed to read storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error reading storage file")
		return err
	}

	if len(data) == 0 {
		logrus.Infof("Storage file %s is empty, starting with empty buffer", m.storageFilePath)
		return nil
	}

	var buffer map[string]*models.Ticket
	if err = json.Unmarshal(data, &buffer); err != nil {
		err = fmt.Errorf("failed to unmarshal storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error parsing storage file")
		return err
	}
	if buffer == nil {
		buffer = make(map[string]*models.Ticket)
	}

	m.BatchBuffer = buffer
	logrus.Infof("Loaded %d tickets from %s", len(m.BatchBuffer), m.storageFilePath)
	return nil
}

// SaveBatchToFile persists the in-memory ticket buffer to the storage file.
// The buffer is written to a temporary file first and then renamed over the target.
// Returns an error if the file cannot be written.
func (m *TicketsState) SaveBatchToFile() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	startTime := time.Now()

	tempPath := m.storageFilePath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		err = fmt.Errorf("failed to open temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error saving batch to file")
		return err
	}

	writer := bufio.NewWriter(file)
	if err = json.NewEncoder(writer).Encode(m.BatchBuffer); err != nil {
		file.Close()
		err = fmt.Errorf("failed to encode batch to temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error encoding batch")
		return err
	}
	if err = writer.Flush(); err != nil {
		file.Close()
		err = fmt.Errorf("failed to flush temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error flushing batch")
		return err
	}
	if err = file.Close(); err != nil {
		err = fmt.Errorf("failed to close temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error closing batch file")
		return err
	}

	if err = os.Rename(tempPath, m.storageFilePath); err != nil {
		err = fmt.Errorf("failed to rename temp file %s to %s: %w", tempPath, m.storageFilePath, err)
		logrus.WithError(err).Error("Error finalizing batch save")
		return err
	}

	logrus.Infof("Saved %d tickets to %s in %v", len(m.BatchBuffer), m.storageFilePath, time.Since(startTime))
	return nil
}

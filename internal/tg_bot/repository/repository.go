// Package repository provides the chat state store of the Telegram bot.
// It keeps chat language choices in memory and persists them to a file.
package repository

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// ChatsState manages the state of Telegram chats in memory and on disk.
type ChatsState struct {
	BatchBuffer     map[int64]*models.ChatState `json:"batchBuffer"` // In-memory store of chat states by chat ID.
	storageFilePath string                      // File path for persisting chat states.
	mu              *sync.RWMutex               // Protects BatchBuffer from concurrent access
	now             func() time.Time
}

// NewChatsState creates a new ChatsState instance with an empty memory buffer.
// Arguments:
//   - envStoragePath: file path where chat states are persisted.
//
// Returns a pointer to a ChatsState.
func NewChatsState(envStoragePath string) *ChatsState {
	return &ChatsState{
		BatchBuffer:     make(map[int64]*models.ChatState),
		storageFilePath: envStoragePath,
		mu:              &sync.RWMutex{},
		now:             time.Now,
	}
}

// SetLanguage stores lang as the reply language of chatID.
func (m *ChatsState) SetLanguage(chatID int64, lang string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchBuffer[chatID] = &models.ChatState{
		ChatID:    chatID,
		Language:  lang,
		UpdatedAt: m.now().UTC(),
	}
}

// Language returns the stored reply language of chatID and whether one is set.
func (m *ChatsState) Language(chatID int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.BatchBuffer[chatID]
	if !ok || state == nil || state.Language == "" {
		return "", false
	}
	return state.Language, true
}

// ReadFileToMemory reads chat states from the storage file into the in-memory buffer.
// A missing or empty file leaves the buffer empty.
// Returns an error if the file cannot be read or parsed.
func (m *ChatsState) ReadFileToMemory() error {
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

	var buffer map[int64]*models.ChatState
	if err = json.Unmarshal(data, &buffer); err != nil {
		err = fmt.Errorf("failed to unmarshal storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error parsing storage file")
		return err
	}
	if buffer == nil {
		buffer = make(map[int64]*models.ChatState)
	}

	m.BatchBuffer = buffer
	logrus.Infof("Loaded %d chat states from %s", len(m.BatchBuffer), m.storageFilePath)
	return nil
}

// SaveBatchToFile persists the in-memory chat state buffer to the storage file.
// Returns an error if the file cannot be written.
func (m *ChatsState) SaveBatchToFile() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	startTime := time.Now()

	// Write to a temporary file first
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

	// Atomically rename a temp file to final destination
	if err = os.Rename(tempPath, m.storageFilePath); err != nil {
		err = fmt.Errorf("failed to rename temp file %s to %s: %w", tempPath, m.storageFilePath, err)
		logrus.WithError(err).Error("Error finalizing batch save")
		return err
	}

	logrus.Infof("Saved %d chat states to %s in %v", len(m.BatchBuffer), m.storageFilePath, time.Since(startTime))
	return nil
}

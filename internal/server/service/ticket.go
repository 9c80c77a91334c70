package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	"github.com/DenisKhanov/CitySupport/internal/server/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultListLimit is the page size used when the client gives none.
	DefaultListLimit = 50
	// ReceiptURLTTL is the lifetime of a presigned receipt URL.
	ReceiptURLTTL = time.Hour
	// receiptsFolder is the key prefix of uploaded receipts.
	receiptsFolder = "receipts"
)

// TicketService manages support tickets and their receipts.
type TicketService struct {
	repo     TicketRepository // Ticket storage
	storage  FileStorage      // Receipt storage, nil when not configured
	recorder Recorder         // Business metrics
	now      func() time.Time
}

// NewTicketService creates a TicketService.
// Arguments:
//   - repo: ticket storage.
//   - storage: receipt storage; pass a nil interface when uploads are disabled.
//   - recorder: metrics receiver; nil disables metrics.
//
// Returns a pointer to a TicketService.
func NewTicketService(repo TicketRepository, storage FileStorage, recorder Recorder) *TicketService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &TicketService{
		repo:     repo,
		storage:  storage,
		recorder: recorder,
		now:      time.Now,
	}
}

// Create validates req and stores a new open ticket with normal priority.
// Returns a *ValidationError for bad input.
func (s *TicketService) Create(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error) {
	ticket, err := s.create(ctx, req)
	s.recorder.ObserveTicketOperation("create", err)
	return ticket, err
}

func (s *TicketService) create(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error) {
	if err := validateCreateTicket(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	conversation := req.Conversation
	if conversation == nil {
		conversation = []models.Message{}
	}
	ticket := &models.Ticket{
		ID:            uuid.NewString(),
		TicketNumber:  ticketNumber(now),
		Subject:       req.Subject,
		Description:   req.Description,
		Status:        models.StatusOpen,
		Priority:      models.PriorityNormal,
		Source:        req.Source,
		Language:      req.Language,
		CustomerName:  req.Contact.Name,
		CustomerPhone: stripSpaces(req.Contact.Phone),
		CustomerEmail: req.Contact.Email,
		Conversation:  conversation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		logrus.WithError(err).Error("Failed to create ticket")
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	logrus.WithField("ticketNumber", ticket.TicketNumber).Info("Ticket created successfully")
	return ticket, nil
}

// List returns one page of tickets, newest first.
// A zero limit means DefaultListLimit. Returns a *ValidationError for bad filters.
func (s *TicketService) List(ctx context.Context, filter models.TicketFilter) (models.TicketPage, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return models.TicketPage{}, invalid("Limit and offset must not be negative")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return models.TicketPage{}, invalid("Invalid status")
	}
	if filter.Source != "" && !filter.Source.Valid() {
		return models.TicketPage{}, invalid("Invalid source")
	}
	if filter.Language != "" {
		if _, err := validateLanguage(filter.Language); err != nil {
			return models.TicketPage{}, err
		}
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultListLimit
	}

	tickets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch tickets")
		return models.TicketPage{}, fmt.Errorf("list tickets: %w", err)
	}

	logrus.WithField("count", len(tickets)).Info("Tickets fetched successfully")
	return models.TicketPage{
		Tickets: tickets,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Get returns the ticket with id.
// Returns ErrTicketNotFound if there is none.
func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	logrus.WithField("ticketId", id).Info("Ticket fetched successfully")
	return ticket, nil
}

func (s *TicketService) get(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		logrus.WithError(err).WithField("ticketId", id).Error("Failed to fetch ticket")
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// Update applies the non-nil fields of req to the ticket with id.
// Moving a ticket to resolved stamps resolved_at.
// Returns ErrTicketNotFound or a *ValidationError.
func (s *TicketService) Update(ctx context.Context, id string, req *models.UpdateTicketRequest) (*models.Ticket, error) {
	ticket, err := s.update(ctx, id, req)
	s.recorder.ObserveTicketOperation("update", err)
	return ticket, err
}

func (s *TicketService) update(ctx context.Context, id string, req *models.UpdateTicketRequest) (*models.Ticket, error) {
	if err := validateUpdateTicket(req); err != nil {
		return nil, err
	}
	ticket, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if req.Status != nil {
		ticket.Status = *req.Status
		if *req.Status == models.StatusResolved {
			ticket.ResolvedAt = &now
		}
	}
	if req.Priority != nil {
		ticket.Priority = *req.Priority
	}
	if req.AssignedTo != nil {
		ticket.AssignedTo = *req.AssignedTo
	}
	ticket.UpdatedAt = now

	if err = s.save(ctx, ticket); err != nil {
		return nil, err
	}
	logrus.WithField("ticketId", id).Info("Ticket updated successfully")
	return ticket, nil
}

// Delete removes the ticket with id together with its receipt. A receipt that
// cannot be deleted from the storage is logged and left behind.
// Returns ErrTicketNotFound if there is no such ticket.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	err := s.delete(ctx, id)
	s.recorder.ObserveTicketOperation("delete", err)
	return err
}

func (s *TicketService) delete(ctx context.Context, id string) error {
	ticket, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	s.deleteReceipt(ctx, ticket.ReceiptFilename)

	err = s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTicketNotFound
	}
	if err != nil {
		logrus.WithError(err).WithField("ticketId", id).Error("Failed to delete ticket")
		return fmt.Errorf("delete ticket: %w", err)
	}

	logrus.WithField("ticketId", id).Info("Ticket deleted successfully")
	return nil
}

// UploadReceipt stores receipt and attaches it to the ticket with id, replacing
// any previous receipt.
// Returns a *ValidationError, ErrStorageNotConfigured or ErrTicketNotFound.
func (s *TicketService) UploadReceipt(ctx context.Context, id string, receipt *models.Receipt) (*models.Ticket, error) {
	ticket, err := s.uploadReceipt(ctx, id, receipt)
	s.recorder.ObserveTicketOperation("upload_receipt", err)
	return ticket, err
}

func (s *TicketService) uploadReceipt(ctx context.Context, id string, receipt *models.Receipt) (*models.Ticket, error) {
	if err := validateReceipt(receipt); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}
	ticket, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.deleteReceipt(ctx, ticket.ReceiptFilename)

	url, key, err := s.storage.Upload(ctx, receiptsFolder, receipt.Filename, receipt.ContentType, receipt.Data)
	if err != nil {
		logrus.WithError(err).WithField("ticketId", id).Error("Failed to upload receipt")
		return nil, fmt.Errorf("upload receipt: %w", err)
	}

	now := s.now().UTC()
	ticket.ReceiptURL = url
	ticket.ReceiptFilename = key
	ticket.ReceiptUploadedAt = &now
	ticket.UpdatedAt = now
	if err = s.save(ctx, ticket); err != nil {
		s.deleteReceipt(ctx, key)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"ticketId": id, "filename": key}).Info("Receipt uploaded successfully")
	return ticket, nil
}

// ReceiptURL returns a presigned download URL for the receipt of the ticket with id.
// Returns ErrStorageNotConfigured, ErrTicketNotFound or ErrNoReceipt.
func (s *TicketService) ReceiptURL(ctx context.Context, id string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageNotConfigured
	}
	ticket, err := s.get(ctx, id)
	if err != nil {
		return "", err
	}
	if ticket.ReceiptFilename == "" {
		return "", ErrNoReceipt
	}
	url, err := s.storage.SignedURL(ctx, ticket.ReceiptFilename, ReceiptURLTTL)
	if err != nil {
		logrus.WithError(err).WithField("ticketId", id).Error("Failed to sign receipt URL")
		return "", fmt.Errorf("sign receipt url: %w", err)
	}
	return url, nil
}

// Ping checks the ticket storage.
func (s *TicketService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *TicketService) save(ctx context.Context, ticket *models.Ticket) error {
	err := s.repo.Update(ctx, ticket)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTicketNotFound
	}
	if err != nil {
		logrus.WithError(err).WithField("ticketId", ticket.ID).Error("Failed to update ticket")
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}

// deleteReceipt removes key from the storage, logging instead of failing.
func (s *TicketService) deleteReceipt(ctx context.Context, key string) {
	if key == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("filename", key).Warn("Failed to delete file from storage")
	}
}

// ticketNumber is CC followed by the last six digits of the Unix millisecond time.
func ticketNumber(t time.Time) string {
	return fmt.Sprintf("CC%06d", t.UnixMilli()%1_000_000)
}

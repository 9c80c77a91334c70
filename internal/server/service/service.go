// Package service provides the business logic of the support API: answering chat
// messages through the rule-based responder and managing support tickets with
// their receipt attachments.
package service

import (
	"context"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/responder"
	"github.com/DenisKhanov/CitySupport/internal/server/models"
)

// TicketRepository defines an interface for storing and retrieving tickets.
// It abstracts the underlying storage mechanism.
type TicketRepository interface {
	// Create stores a new ticket.
	Create(ctx context.Context, ticket *models.Ticket) error
	// Get returns the ticket with id.
	// Returns repository.ErrNotFound if there is none.
	Get(ctx context.Context, id string) (*models.Ticket, error)
	// List returns the filtered page, newest first, and the number of matches before paging.
	List(ctx context.Context, filter models.TicketFilter) ([]*models.Ticket, int, error)
	// Update replaces the stored ticket with the same id.
	// Returns repository.ErrNotFound if there is none.
	Update(ctx context.Context, ticket *models.Ticket) error
	// Delete removes the ticket with id.
	// Returns repository.ErrNotFound if there is none.
	Delete(ctx context.Context, id string) error
	// Ping checks that the storage is reachable.
	Ping(ctx context.Context) error
}

// FileStorage defines an interface for the object storage holding receipts.
type FileStorage interface {
	// Upload stores data under folder and returns its public URL and object key.
	Upload(ctx context.Context, folder, name, contentType string, data []byte) (url string, key string, err error)
	// SignedURL returns a temporary download URL for key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes key.
	Delete(ctx context.Context, key string) error
}

// Composer answers a chat message.
type Composer interface {
	Compose(message string, lang responder.Language) responder.Reply
}

// Recorder receives business metrics.
type Recorder interface {
	ObserveChatReply(source string, needsTicket bool)
	ObserveTicketOperation(operation string, err error)
}

// noopRecorder drops every observation.
type noopRecorder struct{}

func (noopRecorder) ObserveChatReply(string, bool) {}
func (noopRecorder) ObserveTicketOperation(string, error) {}

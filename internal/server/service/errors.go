package service

import "errors"

var (
	// ErrTicketNotFound is returned when the requested ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrStorageNotConfigured is returned by receipt operations when no file storage is set.
	ErrStorageNotConfigured = errors.New("file storage not configured")
	// ErrNoReceipt is returned when a receipt URL is requested for a ticket without one.
	ErrNoReceipt = errors.New("ticket has no receipt")
)

// ValidationError reports invalid client input. Message is safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

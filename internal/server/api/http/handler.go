// Package http exposes the support API over HTTP: chat replies, ticket CRUD
// and receipt attachments.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	"github.com/DenisKhanov/CitySupport/internal/server/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 3 * time.Second

// ChatService answers chat messages.
type ChatService interface {
	Reply(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// TicketService manages support tickets.
type TicketService interface {
	Create(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error)
	List(ctx context.Context, filter models.TicketFilter) (models.TicketPage, error)
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Update(ctx context.Context, id string, req *models.UpdateTicketRequest) (*models.Ticket, error)
	Delete(ctx context.Context, id string) error
	UploadReceipt(ctx context.Context, id string, receipt *models.Receipt) (*models.Ticket, error)
	ReceiptURL(ctx context.Context, id string) (string, error)
	Ping(ctx context.Context) error
}

// Handler serves the support API endpoints.
type Handler struct {
	chat    ChatService   // Rule-based chat replies
	tickets TicketService // Ticket management
	version string        // Reported by the root endpoint
	now     func() time.Time
}

// NewHandler creates a new Handler.
// Arguments:
//   - chat: the chat service.
//   - tickets: the ticket service.
//   - version: application version reported by GET /.
//
// Returns a pointer to a Handler.
func NewHandler(chat ChatService, tickets TicketService, version string) *Handler {
	return &Handler{
		chat:    chat,
		tickets: tickets,
		version: version,
		now:     time.Now,
	}
}

// Root reports that the API is up.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "CityCard Backend API",
		"version": h.version,
	})
}

// Health reports whether the ticket storage is reachable. It always answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, database := "healthy", "connected"
	if err := h.tickets.Ping(ctx); err != nil {
		logrus.WithError(err).Error("Database connection test failed")
		status, database = "degraded", "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    status,
		"database":  database,
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// ChatMessage answers one chat message.
func (h *Handler) ChatMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.chat.Reply(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("Route %s not found", r.URL.RequestURI()))
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
}

// ticketID returns the {id} URL parameter.
func ticketID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// queryInt parses the query parameter key, returning def when it is absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// decodeJSON reads the request body into v, writing the error response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "Request body is required")
	default:
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
	}
	return false
}

// writeServiceError maps service errors to HTTP responses. Unexpected errors
// are answered with a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, "Ticket not found")
	case errors.Is(err, service.ErrNoReceipt):
		writeError(w, http.StatusNotFound, "Ticket has no receipt")
	case errors.Is(err, service.ErrStorageNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Failed to write response")
	}
}

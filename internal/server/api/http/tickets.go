package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	"github.com/DenisKhanov/CitySupport/internal/server/service"
)

// receiptFormMemory is the part of a multipart body kept in memory before spilling to disk.
const receiptFormMemory = 8 << 20

// CreateTicket stores a new ticket and answers 201 with it.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ticket, err := h.tickets.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// ListTickets answers one page of tickets filtered by the status, language and
// source query parameters.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Limit must be a number")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Offset must be a number")
		return
	}
	q := r.URL.Query()
	page, err := h.tickets.List(r.Context(), models.TicketFilter{
		Status:   models.TicketStatus(q.Get("status")),
		Language: q.Get("language"),
		Source:   models.TicketSource(q.Get("source")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetTicket answers the ticket with the {id} parameter.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.tickets.Get(r.Context(), ticketID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// UpdateTicket changes status, priority or assignee of a ticket.
func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ticket, err := h.tickets.Update(r.Context(), ticketID(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// DeleteTicket removes a ticket and its receipt.
func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.tickets.Delete(r.Context(), ticketID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Ticket deleted successfully"})
}

// UploadReceipt attaches the multipart field "file" to a ticket.
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := readReceipt(r)
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusBadRequest, "File size must be less than 5MB")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	ticket, err := h.tickets.UploadReceipt(r.Context(), ticketID(r), receipt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// ReceiptURL answers a temporary download URL for the receipt of a ticket.
func (h *Handler) ReceiptURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.tickets.ReceiptURL(r.Context(), ticketID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// readReceipt extracts the "file" part. A missing part yields a nil receipt so
// the service reports it. At most one byte past the size limit is read.
func readReceipt(r *http.Request) (*models.Receipt, error) {
	if err := r.ParseMultipartForm(receiptFormMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxReceiptSize+1))
	if err != nil {
		return nil, err
	}
	return &models.Receipt{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}

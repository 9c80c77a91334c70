// Package models holds the data types exchanged by the support API.
package models

import "time"

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// TicketPriority orders tickets for agents.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityNormal TicketPriority = "normal"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TicketSource is the channel a ticket was opened from.
type TicketSource string

const (
	SourceWeb      TicketSource = "web"
	SourceWhatsApp TicketSource = "whatsapp"
	SourceTelegram TicketSource = "telegram"
)

// Valid reports whether s is a known source.
func (s TicketSource) Valid() bool {
	switch s {
	case SourceWeb, SourceWhatsApp, SourceTelegram:
		return true
	}
	return false
}

// Ticket is a support request handed over to a human agent.
type Ticket struct {
	ID                string         `json:"id"`
	TicketNumber      string         `json:"ticket_number"` // Short human friendly number, CC + 6 digits
	Subject           string         `json:"subject"`
	Description       string         `json:"description"`
	Status            TicketStatus   `json:"status"`
	Priority          TicketPriority `json:"priority"`
	Source            TicketSource   `json:"source"`
	Language          string         `json:"language"`
	CustomerName      string         `json:"customer_name"`
	CustomerPhone     string         `json:"customer_phone"`
	CustomerEmail     string         `json:"customer_email"`
	Conversation      []Message      `json:"conversation"` // Chat transcript attached by the client
	ReceiptURL        string         `json:"receipt_url,omitempty"`
	ReceiptFilename   string         `json:"receipt_filename,omitempty"` // Object key in the bucket
	ReceiptUploadedAt *time.Time     `json:"receipt_uploaded_at,omitempty"`
	AssignedTo        string         `json:"assigned_to,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	ResolvedAt        *time.Time     `json:"resolved_at,omitempty"`
}

// Clone returns a deep copy of t so stored tickets never alias caller memory.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	if t.Conversation != nil {
		c.Conversation = make([]Message, len(t.Conversation))
		copy(c.Conversation, t.Conversation)
	}
	if t.ReceiptUploadedAt != nil {
		v := *t.ReceiptUploadedAt
		c.ReceiptUploadedAt = &v
	}
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}

// ContactInfo identifies the customer behind a ticket.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CreateTicketRequest is the body of POST /api/tickets.
type CreateTicketRequest struct {
	Subject      string       `json:"subject"`
	Description  string       `json:"description"`
	Contact      *ContactInfo `json:"contact"`
	Conversation []Message    `json:"conversation"`
	Language     string       `json:"language"`
	Source       TicketSource `json:"source,omitempty"`
}

// UpdateTicketRequest is the body of PUT /api/tickets/{id}. Nil fields are left unchanged.
type UpdateTicketRequest struct {
	Status     *TicketStatus   `json:"status,omitempty"`
	Priority   *TicketPriority `json:"priority,omitempty"`
	AssignedTo *string         `json:"assigned_to,omitempty"`
}

// TicketFilter narrows GET /api/tickets. Empty fields match everything.
type TicketFilter struct {
	Status   TicketStatus
	Language string
	Source   TicketSource
	Limit    int
	Offset   int
}

// Match reports whether t passes every non-empty filter field.
func (f TicketFilter) Match(t *Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Language != "" && t.Language != f.Language {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	return true
}

// TicketPage is one page of the ticket list.
type TicketPage struct {
	Tickets []*Ticket `json:"tickets"`
	Total   int       `json:"total"` // Matching tickets before paging
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}

// Receipt is an uploaded attachment before it is stored.
type Receipt struct {
	Filename    string // Original client file name
	ContentType string
	Size        int64
	Data        []byte
}

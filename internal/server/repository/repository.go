// Package repository provides the ticket storage backends: an in-memory state
// persisted to a JSON file, and a database/sql store for SQLite, MySQL and PostgreSQL.
package repository

import (
	"errors"
	"sort"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
)

// ErrNotFound is returned when no ticket has the requested id.
var ErrNotFound = errors.New("ticket not found")

// ErrDuplicate is returned when a ticket with the same id already exists.
var ErrDuplicate = errors.New("ticket already exists")

// sortNewestFirst orders tickets by creation time, newest first, with the id as tiebreaker.
func sortNewestFirst(tickets []*models.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		}
		return tickets[i].ID > tickets[j].ID
	})
}

// page cuts tickets to the filter window.
func page(tickets []*models.Ticket, filter models.TicketFilter) []*models.Ticket {
	if filter.Offset >= len(tickets) {
		return []*models.Ticket{}
	}
	end := len(tickets)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return tickets[filter.Offset:end]
}

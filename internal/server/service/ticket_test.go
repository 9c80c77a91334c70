package service

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	"github.com/DenisKhanov/CitySupport/internal/server/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
	n         int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, folder, name, _ string, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", "", f.uploadErr
	}
	f.n++
	key := folder + "/" + strconv.Itoa(f.n) + "-" + name
	f.objects[key] = data
	return "https://files.example.com/" + key, key, nil
}

func (f *fakeStorage) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example.com/" + key + "?ttl=" + ttl.String(), nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

// failingRepo wraps a repository and fails selected operations.
type failingRepo struct {
	TicketRepository
	failUpdate bool
}

func (r *failingRepo) Update(ctx context.Context, t *models.Ticket) error {
	if r.failUpdate {
		return errors.New("disk full")
	}
	return r.TicketRepository.Update(ctx, t)
}

var clock = time.Date(2026, 5, 4, 12, 30, 0, 123_000_000, time.UTC)

func newTicketService(t *testing.T, storage FileStorage) (*TicketService, *fakeRecorder) {
	t.Helper()
	repo := repository.NewTicketsState(filepath.Join(t.TempDir(), "tickets.json"))
	rec := &fakeRecorder{}
	s := NewTicketService(repo, storage, rec)
	s.now = func() time.Time { return clock }
	return s, rec
}

func TestCreateTicket(t *testing.T) {
	s, rec := newTicketService(t, nil)
	ctx := context.Background()

	ticket, err := s.Create(ctx, validCreate())
	require.NoError(t, err)

	assert.Len(t, ticket.ID, 36)
	assert.Equal(t, "CC", ticket.TicketNumber[:2])
	assert.Len(t, ticket.TicketNumber, 8)
	assert.Equal(t, ticketNumber(clock), ticket.TicketNumber)
	assert.Equal(t, models.StatusOpen, ticket.Status)
	assert.Equal(t, models.PriorityNormal, ticket.Priority)
	assert.Equal(t, models.SourceWeb, ticket.Source)
	assert.Equal(t, "+994501234567", ticket.CustomerPhone)
	assert.NotNil(t, ticket.Conversation)
	assert.True(t, clock.Equal(ticket.CreatedAt))

	got, err := s.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketNumber, got.TicketNumber)
	assert.Equal(t, 1, rec.ops["create:ok"])
}

func TestCreateTicketValidation(t *testing.T) {
	s, rec := newTicketService(t, nil)
	req := validCreate()
	req.Contact.Phone = "123"

	_, err := s.Create(context.Background(), req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, rec.ops["create:error"])
}

func TestTicketNumber(t *testing.T) {
	assert.Equal(t, "CC000000", ticketNumber(time.UnixMilli(1_000_000)))
	assert.Equal(t, "CC654321", ticketNumber(time.UnixMilli(1767_000_654_321)))
}

func TestListTickets(t *testing.T) {
	s, _ := newTicketService(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.now = func() time.Time { return clock.Add(time.Duration(i) * time.Second) }
		req := validCreate()
		if i == 2 {
			req.Language = "ru"
		}
		_, err := s.Create(ctx, req)
		require.NoError(t, err)
	}

	page, err := s.List(ctx, models.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, page.Limit)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Tickets, 3)
	assert.Equal(t, "ru", page.Tickets[0].Language)

	page, err = s.List(ctx, models.TicketFilter{Language: "az", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Tickets, 1)
	assert.Equal(t, 1, page.Offset)

	for _, f := range []models.TicketFilter{
		{Limit: -1},
		{Offset: -5},
		{Status: "pending"},
		{Source: "fax"},
		{Language: "en"},
	} {
		_, err = s.List(ctx, f)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "filter %+v", f)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	s, _ := newTicketService(t, nil)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestUpdateTicket(t *testing.T) {
	s, rec := newTicketService(t, nil)
	ctx := context.Background()
	created, err := s.Create(ctx, validCreate())
	require.NoError(t, err)

	later := clock.Add(time.Hour)
	s.now = func() time.Time { return later }

	inProgress := models.StatusInProgress
	agent := "agent-7"
	updated, err := s.Update(ctx, created.ID, &models.UpdateTicketRequest{Status: &inProgress, AssignedTo: &agent})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "agent-7", updated.AssignedTo)
	assert.Nil(t, updated.ResolvedAt)
	assert.True(t, later.Equal(updated.UpdatedAt))

	resolved := models.StatusResolved
	high := models.PriorityHigh
	updated, err = s.Update(ctx, created.ID, &models.UpdateTicketRequest{Status: &resolved, Priority: &high})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	assert.True(t, later.Equal(*updated.ResolvedAt))
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, "agent-7", updated.AssignedTo)

	_, err = s.Update(ctx, "missing", &models.UpdateTicketRequest{Status: &resolved})
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, err = s.Update(ctx, created.ID, &models.UpdateTicketRequest{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, 2, rec.ops["update:ok"])
	assert.Equal(t, 2, rec.ops["update:error"])
}

func TestDeleteTicket(t *testing.T) {
	storage := newFakeStorage()
	s, _ := newTicketService(t, storage)
	ctx := context.Background()

	created, err := s.Create(ctx, validCreate())
	require.NoError(t, err)
	withReceipt, err := s.UploadReceipt(ctx, created.ID, pdfReceipt())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.Equal(t, []string{withReceipt.ReceiptFilename}, storage.deleted)

	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.ErrorIs(t, s.Delete(ctx, created.ID), ErrTicketNotFound)
}

func TestDeleteTicketStorageFailureIsIgnored(t *testing.T) {
	storage := newFakeStorage()
	s, _ := newTicketService(t, storage)
	ctx := context.Background()

	created, err := s.Create(ctx, validCreate())
	require.NoError(t, err)
	_, err = s.UploadReceipt(ctx, created.ID, pdfReceipt())
	require.NoError(t, err)

	storage.deleteErr = errors.New("bucket unreachable")
	assert.NoError(t, s.Delete(ctx, created.ID))
}

func pdfReceipt() *models.Receipt {
	data := []byte("%PDF-1.4 receipt")
	return &models.Receipt{Filename: "check.pdf", ContentType: "application/pdf", Size: int64(len(data)), Data: data}
}

func TestUploadReceipt(t *testing.T) {
	storage := newFakeStorage()
	s, rec := newTicketService(t, storage)
	ctx := context.Background()
	created, err := s.Create(ctx, validCreate())
	require.NoError(t, err)

	first, err := s.UploadReceipt(ctx, created.ID, pdfReceipt())
	require.NoError(t, err)
	assert.Equal(t, "receipts/1-check.pdf", first.ReceiptFilename)
	assert.Equal(t, "https://files.example.com/receipts/1-check.pdf", first.ReceiptURL)
	require.NotNil(t, first.ReceiptUploadedAt)

	second, err := s.UploadReceipt(ctx, created.ID, pdfReceipt())
	require.NoError(t, err)
	assert.Equal(t, "receipts/2-check.pdf", second.ReceiptFilename)
	assert.Equal(t, []string{"receipts/1-check.pdf"}, storage.deleted)

	stored, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ReceiptFilename, stored.ReceiptFilename)
	assert.Equal(t, 2, rec.ops["upload_receipt:ok"])
}

func TestUploadReceiptErrors(t *testing.T) {
	ctx := context.Background()

	noStorage, _ := newTicketService(t, nil)
	created, err := noStorage.Create(ctx, validCreate())
	require.NoError(t, err)
	_, err = noStorage.UploadReceipt(ctx, created.ID, pdfReceipt())
	assert.ErrorIs(t, err, ErrStorageNotConfigured)

	storage := newFakeStorage()
	s, _ := newTicketService(t, storage)
	_, err = s.UploadReceipt(ctx, "missing", pdfReceipt())
	assert.ErrorIs(t, err, ErrTicketNotFound)

	gif := &models.Receipt{Filename: "a.gif", ContentType: "image/gif", Size: 3, Data: []byte("GIF")}
	_, err = s.UploadReceipt(ctx, "missing", gif)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	created, err = s.Create(ctx, validCreate())
	require.NoError(t, err)
	storage.uploadErr = errors.New("bucket unreachable")
	_, err = s.UploadReceipt(ctx, created.ID, pdfReceipt())
	assert.ErrorContains(t, err, "bucket unreachable")
}

func TestUploadReceiptRemovesObjectWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	repo := &failingRepo{TicketRepository: repository.NewTicketsState(filepath.Join(t.TempDir(), "t.json"))}
	s := NewTicketService(repo, storage, nil)

	created, err := s.Create(ctx, validCreate())
	require.NoError(t, err)

	repo.failUpdate = true
	_, err = s.UploadReceipt(ctx, created.ID, pdfReceipt())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"receipts/1-check.pdf"}, storage.deleted)
	assert.Empty(t, storage.objects)
}

func TestReceiptURL(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	s, _ := newTicketService(t, storage)

	created, err := s.Create(ctx, validCreate())
	require.NoError(t, err)

	_, err = s.ReceiptURL(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNoReceipt)

	_, err = s.UploadReceipt(ctx, created.ID, pdfReceipt())
	require.NoError(t, err)
	url, err := s.ReceiptURL(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/receipts/1-check.pdf?ttl=1h0m0s", url)

	_, err = s.ReceiptURL(ctx, "missing")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	noStorage, _ := newTicketService(t, nil)
	_, err = noStorage.ReceiptURL(ctx, created.ID)
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestTicketServicePing(t *testing.T) {
	s, _ := newTicketService(t, nil)
	assert.NoError(t, s.Ping(context.Background()))
}

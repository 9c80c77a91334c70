package service

import (
	"testing"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{phone: "+994501234567", want: true},
		{phone: "+994 50 123 45 67", want: true},
		{phone: "+994121234567", want: true},
		{phone: "+994991234567", want: true},
		{phone: "+994601234567", want: false},
		{phone: "994501234567", want: false},
		{phone: "+99450123456", want: false},
		{phone: "+9945012345678", want: false},
		{phone: "", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePhone(tt.phone), "phone %q", tt.phone)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("aysel@example.com"))
	assert.True(t, ValidateEmail("a.b@mail.citycard.az"))
	assert.False(t, ValidateEmail("aysel@example"))
	assert.False(t, ValidateEmail("aysel example@x.com"))
	assert.False(t, ValidateEmail("@example.com"))
}

func TestValidateReceipt(t *testing.T) {
	assert.True(t, ValidateReceiptType("image/jpg"))
	assert.False(t, ValidateReceiptType("image/gif"))
	assert.True(t, ValidateReceiptSize(MaxReceiptSize))
	assert.False(t, ValidateReceiptSize(MaxReceiptSize+1))

	var verr *ValidationError
	require.ErrorAs(t, validateReceipt(nil), &verr)
	assert.Equal(t, "No file uploaded", verr.Message)

	err := validateReceipt(&models.Receipt{ContentType: "text/plain", Size: 1, Data: []byte("x")})
	assert.EqualError(t, err, "Invalid file type. Only PDF, JPEG, and PNG are allowed")

	big := make([]byte, MaxReceiptSize+1)
	err = validateReceipt(&models.Receipt{ContentType: "application/pdf", Size: int64(len(big)), Data: big})
	assert.EqualError(t, err, "File size must be less than 5MB")
}

func validCreate() *models.CreateTicketRequest {
	return &models.CreateTicketRequest{
		Subject:     "Balans",
		Description: "Balans oturmayıb",
		Contact:     &models.ContactInfo{Name: "Aysel", Phone: "+994 50 123 45 67", Email: "aysel@example.com"},
		Language:    "az",
	}
}

func TestValidateCreateTicket(t *testing.T) {
	req := validCreate()
	require.NoError(t, validateCreateTicket(req))
	assert.Equal(t, models.SourceWeb, req.Source)

	tests := []struct {
		name   string
		mutate func(r *models.CreateTicketRequest)
		msg    string
	}{
		{name: "no subject", mutate: func(r *models.CreateTicketRequest) { r.Subject = " " }, msg: "Subject and description are required"},
		{name: "no description", mutate: func(r *models.CreateTicketRequest) { r.Description = "" }, msg: "Subject and description are required"},
		{name: "no contact", mutate: func(r *models.CreateTicketRequest) { r.Contact = nil }, msg: "Complete contact information is required"},
		{name: "no email", mutate: func(r *models.CreateTicketRequest) { r.Contact.Email = "" }, msg: "Complete contact information is required"},
		{name: "bad phone", mutate: func(r *models.CreateTicketRequest) { r.Contact.Phone = "+7 900 123 45 67" }, msg: "Invalid Azerbaijan phone number format. Use: +994XXXXXXXXX"},
		{name: "bad email", mutate: func(r *models.CreateTicketRequest) { r.Contact.Email = "nope" }, msg: "Invalid email format"},
		{name: "bad language", mutate: func(r *models.CreateTicketRequest) { r.Language = "en" }, msg: `Language must be either "az" or "ru"`},
		{name: "bad source", mutate: func(r *models.CreateTicketRequest) { r.Source = "email" }, msg: `Source must be one of "web", "whatsapp" or "telegram"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validCreate()
			tt.mutate(r)
			err := validateCreateTicket(r)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
		})
	}
}

func TestValidateUpdateTicket(t *testing.T) {
	status := models.StatusResolved
	bad := models.TicketStatus("done")
	priority := models.PriorityUrgent
	badPriority := models.TicketPriority("meh")

	assert.NoError(t, validateUpdateTicket(&models.UpdateTicketRequest{Status: &status}))
	assert.NoError(t, validateUpdateTicket(&models.UpdateTicketRequest{Priority: &priority}))
	assert.Error(t, validateUpdateTicket(&models.UpdateTicketRequest{}))
	assert.Error(t, validateUpdateTicket(nil))
	assert.Error(t, validateUpdateTicket(&models.UpdateTicketRequest{Status: &bad}))
	assert.Error(t, validateUpdateTicket(&models.UpdateTicketRequest{Priority: &badPriority}))
}

func TestValidateChat(t *testing.T) {
	lang, err := validateChat(models.ChatRequest{Message: "salam", Language: "ru"})
	require.NoError(t, err)
	assert.Equal(t, "ru", string(lang))

	_, err = validateChat(models.ChatRequest{Message: "  ", Language: "az"})
	assert.EqualError(t, err, "Message is required")

	_, err = validateChat(models.ChatRequest{Message: "salam", Language: "tr"})
	assert.EqualError(t, err, `Language must be either "az" or "ru"`)
}

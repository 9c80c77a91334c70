package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/DenisKhanov/CitySupport/internal/responder"
	"github.com/DenisKhanov/CitySupport/internal/server/models"
)

// MaxReceiptSize is the largest accepted receipt, 5 MB.
const MaxReceiptSize = 5 * 1024 * 1024

var (
	phonePattern = regexp.MustCompile(`^\+994(50|51|55|70|77|99|10|12)\d{7}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var receiptTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/jpg":       true,
}

const languageMessage = `Language must be either "az" or "ru"`

// ValidatePhone reports whether phone is an Azerbaijani mobile number once whitespace is removed.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(stripSpaces(phone))
}

// ValidateEmail reports whether email has the local@domain.tld shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateReceiptType reports whether contentType is an accepted receipt type.
func ValidateReceiptType(contentType string) bool {
	return receiptTypes[contentType]
}

// ValidateReceiptSize reports whether size is within MaxReceiptSize.
func ValidateReceiptSize(size int64) bool {
	return size <= MaxReceiptSize
}

// validateLanguage converts tag into a responder language.
func validateLanguage(tag string) (responder.Language, error) {
	lang, err := responder.ParseLanguage(tag)
	if err != nil {
		return "", invalid(languageMessage)
	}
	return lang, nil
}

// validateChat checks a chat request and returns its language.
func validateChat(req models.ChatRequest) (responder.Language, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", invalid("Message is required")
	}
	return validateLanguage(req.Language)
}

// validateCreateTicket checks a create request. The source defaults to web.
func validateCreateTicket(req *models.CreateTicketRequest) error {
	if req == nil {
		return invalid("Request body is required")
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Description) == "" {
		return invalid("Subject and description are required")
	}
	c := req.Contact
	if c == nil || strings.TrimSpace(c.Name) == "" || c.Phone == "" || c.Email == "" {
		return invalid("Complete contact information is required")
	}
	if !ValidatePhone(c.Phone) {
		return invalid("Invalid Azerbaijan phone number format. Use: +994XXXXXXXXX")
	}
	if !ValidateEmail(c.Email) {
		return invalid("Invalid email format")
	}
	if _, err := validateLanguage(req.Language); err != nil {
		return err
	}
	if req.Source == "" {
		req.Source = models.SourceWeb
	}
	if !req.Source.Valid() {
		return invalid(`Source must be one of "web", "whatsapp" or "telegram"`)
	}
	return nil
}

// validateUpdateTicket checks an update request.
func validateUpdateTicket(req *models.UpdateTicketRequest) error {
	if req == nil || (req.Status == nil && req.Priority == nil && req.AssignedTo == nil) {
		return invalid("Nothing to update")
	}
	if req.Status != nil && !req.Status.Valid() {
		return invalid("Invalid status")
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return invalid("Invalid priority")
	}
	return nil
}

// validateReceipt checks an uploaded receipt.
func validateReceipt(r *models.Receipt) error {
	if r == nil || len(r.Data) == 0 {
		return invalid("No file uploaded")
	}
	if !ValidateReceiptType(r.ContentType) {
		return invalid("Invalid file type. Only PDF, JPEG, and PNG are allowed")
	}
	if !ValidateReceiptSize(r.Size) || !ValidateReceiptSize(int64(len(r.Data))) {
		return invalid("File size must be less than 5MB")
	}
	return nil
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

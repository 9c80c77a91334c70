package service

import (
	"context"
	"unicode/utf8"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	"github.com/sirupsen/logrus"
)

// ChatService answers chat messages with the rule-based responder.
type ChatService struct {
	composer Composer // Rule-based responder
	recorder Recorder // Business metrics
}

// NewChatService creates a ChatService.
// Arguments:
//   - composer: the responder composing replies.
//   - recorder: metrics receiver; nil disables metrics.
//
// Returns a pointer to a ChatService.
func NewChatService(composer Composer, recorder Recorder) *ChatService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ChatService{composer: composer, recorder: recorder}
}

// Reply validates req and composes the answer.
// Returns a *ValidationError for an empty message or an unsupported language.
func (s *ChatService) Reply(_ context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	lang, err := validateChat(req)
	if err != nil {
		return models.ChatResponse{}, err
	}

	log := logrus.WithFields(logrus.Fields{
		"language":      lang,
		"messageLength": utf8.RuneCountInString(req.Message),
	})
	log.Info("Chat message received")

	reply := s.composer.Compose(req.Message, lang)
	s.recorder.ObserveChatReply(string(reply.Source), reply.NeedsTicket)

	log.WithFields(logrus.Fields{
		"source":      reply.Source,
		"category":    reply.Category,
		"needsTicket": reply.NeedsTicket,
	}).Info("Chat reply sent")

	return models.ChatResponse{
		Reply:       reply.Text,
		Source:      string(reply.Source),
		NeedsTicket: reply.NeedsTicket,
	}, nil
}

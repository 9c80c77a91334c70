// Package tbot provides dependency injection and service management for Telegram bot components.
// It initializes and provides access to the responder, the chat state repository and the bot service.
package tbot

import (
	"fmt"
	"sync"

	"github.com/DenisKhanov/CitySupport/internal/responder"
	"github.com/DenisKhanov/CitySupport/internal/tg_bot/custom"
	"github.com/DenisKhanov/CitySupport/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/CitySupport/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// ServiceProvider manages the dependency injection for Telegram bot components.
type ServiceProvider struct {
	composer    *responder.Composer
	composerErr error
	chatsState  *repository.ChatsState
	botAPI      *custom.BotAPICustom
	botService  *botServ.TgBotServices

	// Config values
	storagePath   string
	lexiconPath   string
	ticketFormURL string

	composerOnce   sync.Once
	stateRepoOnce  sync.Once
	botAPIOnce     sync.Once
	botServiceOnce sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
// Arguments:
//   - storagePath: file persisting chat language choices.
//   - lexiconPath: optional YAML lexicon; empty uses the embedded one.
//   - ticketFormURL: optional ticket form link.
func NewServiceProvider(storagePath, lexiconPath, ticketFormURL string) *ServiceProvider {
	if storagePath == "" {
		logrus.Fatal("ServiceProvider creation failed: storage path must be non-empty")
	}
	return &ServiceProvider{
		storagePath:   storagePath,
		lexiconPath:   lexiconPath,
		ticketFormURL: ticketFormURL,
	}
}

// Composer returns the rule-based responder.
func (s *ServiceProvider) Composer() (*responder.Composer, error) {
	s.composerOnce.Do(func() {
		if s.lexiconPath == "" {
			s.composer, s.composerErr = responder.NewDefaultComposer()
		} else {
			var lex *responder.Lexicon
			if lex, s.composerErr = responder.LoadLexiconFile(s.lexiconPath); s.composerErr == nil {
				s.composer = responder.NewComposer(lex)
			}
		}
		if s.composerErr != nil {
			logrus.Errorf("Failed to initialize Composer: %v", s.composerErr)
			return
		}
		logrus.Info("Composer initialized")
	})
	if s.composerErr != nil {
		return nil, fmt.Errorf("composer not initialized: %w", s.composerErr)
	}
	return s.composer, nil
}

// ChatsState returns the chat state repository loaded from its file.
func (s *ServiceProvider) ChatsState() *repository.ChatsState {
	s.stateRepoOnce.Do(func() {
		s.chatsState = repository.NewChatsState(s.storagePath)
		if err := s.chatsState.ReadFileToMemory(); err != nil {
			logrus.Errorf("Failed to read chat state from file: %v", err)
		} else {
			logrus.Info("ChatsState initialized and state loaded")
		}
	})
	return s.chatsState
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI(token string) (*custom.BotAPICustom, error) {
	var err error
	s.botAPIOnce.Do(func() {
		var api *tgbotapi.BotAPI
		api, err = tgbotapi.NewBotAPI(token)
		if err != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", err)
			return
		}
		s.botAPI = &custom.BotAPICustom{BotAPI: api}
	})
	if s.botAPI == nil {
		return nil, fmt.Errorf("bot api not initialized: %w", err)
	}
	return s.botAPI, nil
}

// BotService returns the Telegram bot service.
func (s *ServiceProvider) BotService(bot botServ.Sender) (*botServ.TgBotServices, error) {
	composer, err := s.Composer()
	if err != nil {
		return nil, err
	}
	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewTgBot(composer, s.ChatsState(), bot, s.ticketFormURL)
		logrus.Info("BotService initialized")
	})
	return s.botService, nil
}

// Package server provides dependency injection and service management for the
// support HTTP API. It lazily builds the repositories, storage, services and
// handlers required for handling HTTP requests.
package server

import (
	"context"
	"sync"

	"github.com/DenisKhanov/CitySupport/internal/responder"
	apihttp "github.com/DenisKhanov/CitySupport/internal/server/api/http"
	"github.com/DenisKhanov/CitySupport/internal/server/config"
	"github.com/DenisKhanov/CitySupport/internal/server/metrics"
	"github.com/DenisKhanov/CitySupport/internal/server/repository"
	"github.com/DenisKhanov/CitySupport/internal/server/service"
	"github.com/DenisKhanov/CitySupport/internal/server/storage"
	"github.com/sirupsen/logrus"
)

// serviceProvider manages dependency injection for the components of the HTTP server.
type serviceProvider struct {
	config *config.Config // Application configuration

	metrics       *metrics.Metrics         // Prometheus registry and collectors
	repo          service.TicketRepository // Ticket storage
	tickets       *repository.TicketsState // Set when repo is the memory store
	sqlStore      *repository.SQLStore     // Set when repo is a SQL store
	fileStorage   service.FileStorage      // Receipt storage, nil when not configured
	composer      *responder.Composer      // Rule-based responder
	chatService   *service.ChatService     // Chat business logic
	ticketService *service.TicketService   // Ticket business logic
	handler       *apihttp.Handler         // HTTP endpoints

	metricsOnce  sync.Once
	repoOnce     sync.Once
	storageOnce  sync.Once
	composerOnce sync.Once
	chatOnce     sync.Once
	ticketOnce   sync.Once
	handlerOnce  sync.Once
}

// newServiceProvider creates a new serviceProvider for cfg.
func newServiceProvider(cfg *config.Config) *serviceProvider {
	return &serviceProvider{config: cfg}
}

// Metrics returns the Prometheus metrics of the server.
func (s *serviceProvider) Metrics() *metrics.Metrics {
	s.metricsOnce.Do(func() {
		s.metrics = metrics.New()
	})
	return s.metrics
}

// Repository returns the ticket repository selected by TICKET_STORE.
// The memory store is loaded from its snapshot; SQL stores are opened and migrated.
func (s *serviceProvider) Repository(ctx context.Context) service.TicketRepository {
	s.repoOnce.Do(func() {
		if s.config.TicketStore == config.StoreMemory {
			state := repository.NewTicketsState(s.config.TicketSnapshotPath)
			if err := state.ReadFileToMemory(); err != nil {
				logrus.Fatalf("Failed to load tickets from %s: %v", s.config.TicketSnapshotPath, err)
			}
			s.tickets = state
			s.repo = state
			logrus.Info("Memory ticket repository initialized lazily")
			return
		}

		store, err := repository.NewSQLStore(ctx, repository.Dialect(s.config.TicketStore), s.config.DatabaseDSN)
		if err != nil {
			logrus.Fatalf("Failed to open %s ticket store: %v", s.config.TicketStore, err)
		}
		s.sqlStore = store
		s.repo = store
		logrus.Infof("%s ticket repository initialized lazily", s.config.TicketStore)
	})
	return s.repo
}

// FileStorage returns the R2 receipt storage, or nil when it is not configured.
func (s *serviceProvider) FileStorage(ctx context.Context) service.FileStorage {
	s.storageOnce.Do(func() {
		if !s.config.StorageConfigured() {
			logrus.Warn("R2 storage is not configured, receipt uploads are disabled")
			return
		}
		r2, err := storage.NewR2Storage(ctx, storage.R2Config{
			AccountID:       s.config.R2AccountID,
			AccessKeyID:     s.config.R2AccessKeyID,
			SecretAccessKey: s.config.R2SecretAccessKey,
			Bucket:          s.config.R2BucketName,
			PublicURL:       s.config.R2PublicURL,
			Endpoint:        s.config.R2Endpoint,
		})
		if err != nil {
			logrus.Fatalf("Failed to init R2 storage: %v", err)
		}
		s.fileStorage = r2
	})
	return s.fileStorage
}

// Composer returns the responder, built from LEXICON_PATH when it is set.
func (s *serviceProvider) Composer() *responder.Composer {
	s.composerOnce.Do(func() {
		if s.config.LexiconPath == "" {
			composer, err := responder.NewDefaultComposer()
			if err != nil {
				logrus.Fatalf("Failed to load embedded lexicon: %v", err)
			}
			s.composer = composer
			return
		}
		lex, err := responder.LoadLexiconFile(s.config.LexiconPath)
		if err != nil {
			logrus.Fatalf("Failed to load lexicon %s: %v", s.config.LexiconPath, err)
		}
		s.composer = responder.NewComposer(lex)
		logrus.Infof("Lexicon loaded from %s", s.config.LexiconPath)
	})
	return s.composer
}

// ChatService returns the chat service.
func (s *serviceProvider) ChatService() *service.ChatService {
	s.chatOnce.Do(func() {
		s.chatService = service.NewChatService(s.Composer(), s.Metrics())
	})
	return s.chatService
}

// TicketService returns the ticket service.
func (s *serviceProvider) TicketService(ctx context.Context) *service.TicketService {
	s.ticketOnce.Do(func() {
		s.ticketService = service.NewTicketService(s.Repository(ctx), s.FileStorage(ctx), s.Metrics())
	})
	return s.ticketService
}

// Handler returns the HTTP handler of the API.
func (s *serviceProvider) Handler(ctx context.Context) *apihttp.Handler {
	s.handlerOnce.Do(func() {
		s.handler = apihttp.NewHandler(s.ChatService(), s.TicketService(ctx), s.config.Version)
		logrus.Info("HTTP handler initialized lazily")
	})
	return s.handler
}

// Close saves the memory store and closes the SQL store, whichever is in use.
func (s *serviceProvider) Close() {
	if s.tickets != nil {
		if err := s.tickets.SaveBatchToFile(); err != nil {
			logrus.WithError(err).Error("Error while saving tickets on shutdown")
		}
	}
	if s.sqlStore != nil {
		if err := s.sqlStore.Close(); err != nil {
			logrus.WithError(err).Error("Error while closing ticket store")
		}
	}
}

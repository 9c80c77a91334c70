package tbot

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/logcfg"
	"github.com/DenisKhanov/CitySupport/internal/tg_bot/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const envFile = "bot.env"

// App represents the application structure responsible for initializing dependencies
// and running the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Run starts the application and runs the Telegram bot until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	return a.runTelegramBot(ctx)
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig(envFile)
	if err != nil {
		return err
	}
	a.config = cfg
	logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
	return nil
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = NewServiceProvider(
		a.config.EnvStoragePath,
		a.config.EnvLexiconPath,
		a.config.EnvTicketFormURL,
	)
	return nil
}

// runTelegramBot long-polls Telegram and saves chat states periodically and on shutdown.
func (a *App) runTelegramBot(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize bot API
	botAPI, err := a.serviceProvider.BotAPI(a.config.EnvBotToken)
	if err != nil {
		return err
	}
	botAPI.Debug = a.config.EnvBotDebug
	logrus.Infof("Bot API created successfully for %s", botAPI.Self.UserName)

	// Initialize bot service
	myBot, err := a.serviceProvider.BotService(botAPI)
	if err != nil {
		return err
	}
	chatsState := a.serviceProvider.ChatsState()

	// Ticker for saving chat state to file
	ticker := time.NewTicker(config.SnapshotInterval)
	defer ticker.Stop()

	// Configure updates channel
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60 // seconds timeout
	updates := botAPI.GetUpdatesChan(ctx, updateConfig)

	// Main loop
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Shutting down bot...")
			if err = chatsState.SaveBatchToFile(); err != nil {
				logrus.Error("Error while saving state on shutdown: ", err)
			}
			return nil

		case <-ticker.C:
			if err = chatsState.SaveBatchToFile(); err != nil {
				logrus.Error("Error while saving state on ticker: ", err)
			}

		case update, ok := <-updates:
			if !ok {
				logrus.Warn("Telegram update channel closed")
				updates = nil
				continue
			}
			myBot.UpdateProcessing(&update)
		}
	}
}

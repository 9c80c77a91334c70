package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// SnapshotInterval is the period between chat state snapshots.
const SnapshotInterval = 5 * time.Minute

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel     string `env:"LOG_LEVEL" envDefault:"info"`               // Log level for the application (e.g., debug, info)
	EnvLogFileName   string `env:"LOG_FILE_NAME" envDefault:"bot.log"`        // File's name for log (e.g., bot.log)
	EnvStoragePath   string `env:"FILE_STORAGE_PATH" envDefault:"chats.json"` // File persisting the chat language choices
	EnvBotToken      string `env:"TOKEN_BOT"`                                 // Telegram Bot Token for authentication with the Telegram API
	EnvTicketFormURL string `env:"TICKET_FORM_URL"`                           // Web form offered when a reply needs a ticket
	EnvLexiconPath   string `env:"LEXICON_PATH"`                              // Optional YAML file replacing the embedded lexicon
	EnvBotDebug      bool   `env:"BOT_DEBUG" envDefault:"false"`              // Verbose Telegram API logging
}

// NewConfig initializes a new Config instance by loading environment variables from envFile.
// The file is optional. It returns a pointer to the Config struct and an error if
// the token is missing or a value cannot be parsed.
func NewConfig(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("new load .env: %w", err)
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if config.EnvBotToken == "" {
		return nil, errors.New("TOKEN_BOT is required")
	}
	return config, nil
}

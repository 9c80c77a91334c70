package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Ticket storage backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel   string `env:"LOG_LEVEL" envDefault:"info"`          // Log level for the application (e.g., debug, info)
	EnvLogFileName string `env:"LOG_FILE_NAME" envDefault:"server.log"` // File's name for log (e.g., server.log)
	HTTPServer     string `env:"HTTP_SERVER" envDefault:":3000"`       // Address of the HTTP server
	Version        string `env:"APP_VERSION" envDefault:"1.0.0"`       // Reported by GET /

	TicketStore             string `env:"TICKET_STORE" envDefault:"memory"`              // memory, sqlite, mysql or postgres
	DatabaseDSN             string `env:"DATABASE_URL"`                                  // DSN for the SQL backends
	TicketSnapshotPath      string `env:"TICKET_SNAPSHOT_PATH" envDefault:"tickets.json"` // JSON snapshot of the memory backend
	TicketSnapshotIntervalS int    `env:"TICKET_SNAPSHOT_INTERVAL" envDefault:"300"`      // Seconds between snapshots

	LexiconPath string `env:"LEXICON_PATH"` // Optional YAML file replacing the embedded lexicon

	R2AccountID       string `env:"R2_ACCOUNT_ID"`        // Cloudflare account owning the bucket
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`     // R2 API token key
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"` // R2 API token secret
	R2BucketName      string `env:"R2_BUCKET_NAME"`       // Bucket for receipts
	R2PublicURL       string `env:"R2_PUBLIC_URL"`        // Public base URL of the bucket, optional
	R2Endpoint        string `env:"R2_ENDPOINT"`          // Overrides the account endpoint (e.g. MinIO)

	FrontendURL   string `env:"FRONTEND_URL"`   // Extra CORS origin
	ProductionURL string `env:"PRODUCTION_URL"` // Extra CORS origin

	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"` // Take client IPs from X-Forwarded-For/X-Real-IP
}

// NewConfig initializes a new Config instance by loading environment variables from envFile
// and the command line arguments. The env file is optional; a -l flag overrides LOG_LEVEL.
// It returns a pointer to the Config struct and an error if any of the values are invalid.
func NewConfig(envFile string, args []string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("new load .env: %w", err)
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	logLevel := flags.String("l", "", "Set logging level")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if *logLevel != "" {
		config.EnvLogsLevel = *logLevel
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.TicketStore {
	case StoreMemory:
		if c.TicketSnapshotPath == "" {
			return errors.New("TICKET_SNAPSHOT_PATH is required for the memory store")
		}
	case StoreSQLite, StoreMySQL, StorePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", c.TicketStore)
		}
	default:
		return fmt.Errorf("unknown TICKET_STORE %q", c.TicketStore)
	}
	if c.TicketSnapshotIntervalS <= 0 {
		return fmt.Errorf("TICKET_SNAPSHOT_INTERVAL must be positive, got %d", c.TicketSnapshotIntervalS)
	}
	return nil
}

// SnapshotInterval returns the snapshot period of the memory store.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.TicketSnapshotIntervalS) * time.Second
}

// StorageConfigured reports whether every R2 credential is present.
func (c *Config) StorageConfigured() bool {
	return (c.R2AccountID != "" || c.R2Endpoint != "") &&
		c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// CORSOrigins returns the allowed browser origins.
func (c *Config) CORSOrigins() []string {
	origins := []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"http://localhost:5174",
	}
	for _, o := range []string{c.FrontendURL, c.ProductionURL} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

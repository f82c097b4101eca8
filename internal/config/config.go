package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store backends.
const (
	BackendMongoDB = "mongodb"
	BackendMemory  = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	Survey    SurveyConfig
	Reporting ReportingConfig
	Sheets    SheetsConfig
	MQTT      MQTTConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig holds session token and identity provider settings.
type AuthConfig struct {
	TokenSecret     string
	TokenIssuer     string
	TokenTTL        time.Duration
	IdentityAPIKey  string
	IdentityBaseURL string
}

// SurveyConfig holds survey session settings.
type SurveyConfig struct {
	LocationsFile string
	SessionTTL    time.Duration
	SaveTimeout   time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	SnapshotSchedule string
	SweepSchedule    string
	Timezone         string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SnapshotRange   string
}

// MQTTConfig holds the community totals publisher settings.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv materializes a Config from the current environment without
// validating it.
func FromEnv() (*Config, error) {
	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getDurationWithDefault(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", 20*time.Second),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getenvWithDefault("STORE_BACKEND", BackendMongoDB)),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "footprint"),
		},
		Auth: AuthConfig{
			TokenSecret:     os.Getenv("SESSION_TOKEN_SECRET"),
			TokenIssuer:     getenvWithDefault("SESSION_TOKEN_ISSUER", "footprint"),
			TokenTTL:        duration("SESSION_TOKEN_TTL", 24*time.Hour),
			IdentityAPIKey:  os.Getenv("IDENTITY_API_KEY"),
			IdentityBaseURL: getenvWithDefault("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com"),
		},
		Survey: SurveyConfig{
			LocationsFile: os.Getenv("LOCATIONS_FILE"),
			SessionTTL:    duration("SESSION_TTL", 2*time.Hour),
			SaveTimeout:   duration("SAVE_TIMEOUT", 15*time.Second),
		},
		Reporting: ReportingConfig{
			SnapshotSchedule: getenvWithDefault("SNAPSHOT_CRON_SCHEDULE", "0 0 * * *"),
			SweepSchedule:    getenvWithDefault("SESSION_SWEEP_SCHEDULE", "@every 15m"),
			Timezone:         getenvWithDefault("TIMEZONE", "UTC"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_LEDGER_ID"),
			SnapshotRange:   getenvWithDefault("GOOGLE_SHEET_SNAPSHOT_RANGE", "Community!A:D"),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			ClientID: getenvWithDefault("MQTT_CLIENT_ID", "footprint"),
			Topic:    getenvWithDefault("MQTT_TOPIC", "footprint/community"),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Auth.TokenSecret == "" {
		return errors.New("SESSION_TOKEN_SECRET must be provided")
	}

	switch c.Store.Backend {
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMongoDB, BackendMemory, c.Store.Backend)
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if _, err := cron.ParseStandard(c.Reporting.SnapshotSchedule); err != nil {
		return fmt.Errorf("SNAPSHOT_CRON_SCHEDULE is invalid: %w", err)
	}
	if _, err := cron.ParseStandard(c.Reporting.SweepSchedule); err != nil {
		return fmt.Errorf("SESSION_SWEEP_SCHEDULE is invalid: %w", err)
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_LEDGER_ID must be provided together")
	}

	if c.Survey.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	return nil
}

// Location returns the configured time zone.
func (c ReportingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Enabled reports whether the Sheets ledger is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Enabled reports whether the MQTT publisher is configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// IdentityEnabled reports whether sign-in and sign-up are available.
func (c AuthConfig) IdentityEnabled() bool {
	return c.IdentityAPIKey != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", key, err)
	}
	return d, nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionSecret   string
	SessionDuration time.Duration
	StaticFilesPath string
	LogMode         string

	// Locales lists the supported UI languages; DefaultLocale must be one of them
	Locales       []string
	DefaultLocale string

	// BestAttemptRanking is "score" (raw score) or "percentage" (score / max_score)
	BestAttemptRanking string

	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDatabase reads the configuration but only checks the database
// settings. Used by command line tools that never serve requests.
func LoadDatabase() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func read() (*Config, error) {
	_ = godotenv.Load()

	sessionDuration, err := time.ParseDuration(getEnv("SESSION_DURATION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_DURATION: %w", err)
	}

	return &Config{
		ServerPort:           getEnv("PORT", "8080"),
		DatabaseType:         getEnv("DB_TYPE", "sqlite"),
		DatabasePath:         getEnv("DB_PATH", "./gleanenglish.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionDuration:      sessionDuration,
		StaticFilesPath:      getEnv("STATIC_PATH", "./static"),
		LogMode:              getEnv("LOG_MODE", "development"),
		Locales:              splitList(getEnv("LOCALES", "en,vi")),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "vi"),
		BestAttemptRanking:   strings.ToLower(getEnv("BEST_ATTEMPT_RANKING", "score")),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:         getEnv("SES_FROM_EMAIL", ""),
		SESFromName:          getEnv("SES_FROM_NAME", "Glean English"),
		AppBaseURL:           getEnv("APP_BASE_URL", "http://localhost:8080"),
	}, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive")
	}
	if len(c.Locales) == 0 {
		return fmt.Errorf("LOCALES cannot be empty")
	}
	found := false
	for _, l := range c.Locales {
		if l == c.DefaultLocale {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("DEFAULT_LOCALE %q is not listed in LOCALES", c.DefaultLocale)
	}
	if c.BestAttemptRanking != "score" && c.BestAttemptRanking != "percentage" {
		return fmt.Errorf("BEST_ATTEMPT_RANKING must be score or percentage")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			return fmt.Errorf("DB_PATH cannot be empty for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", c.DatabaseType)
	}
	return nil
}

// OAuthEnabled reports whether Google sign-in is configured
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

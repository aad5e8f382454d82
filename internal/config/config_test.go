package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ServerPort:         "8080",
		DatabaseType:       "sqlite",
		DatabasePath:       "./test.db",
		SessionSecret:      "0123456789abcdef0123456789abcdef",
		SessionDuration:    time.Hour,
		Locales:            []string{"en", "vi"},
		DefaultLocale:      "vi",
		BestAttemptRanking: "score",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty port", mutate: func(c *Config) { c.ServerPort = "" }, wantErr: true},
		{name: "short secret", mutate: func(c *Config) { c.SessionSecret = "short" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseType = "postgres" }, wantErr: true},
		{name: "postgres with url", mutate: func(c *Config) {
			c.DatabaseType = "postgres"
			c.DatabaseURL = "postgres://localhost/glean"
		}, wantErr: false},
		{name: "unknown db type", mutate: func(c *Config) { c.DatabaseType = "oracle" }, wantErr: true},
		{name: "default locale not listed", mutate: func(c *Config) { c.DefaultLocale = "fr" }, wantErr: true},
		{name: "no locales", mutate: func(c *Config) { c.Locales = nil }, wantErr: true},
		{name: "percentage ranking", mutate: func(c *Config) { c.BestAttemptRanking = "percentage" }, wantErr: false},
		{name: "bad ranking", mutate: func(c *Config) { c.BestAttemptRanking = "latest" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("LOCALES", "en, vi ,")
	t.Setenv("DEFAULT_LOCALE", "en")
	t.Setenv("SESSION_DURATION", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Locales) != 2 || cfg.Locales[0] != "en" || cfg.Locales[1] != "vi" {
		t.Errorf("Locales = %v, want [en vi]", cfg.Locales)
	}
	if cfg.DefaultLocale != "en" {
		t.Errorf("DefaultLocale = %q, want en", cfg.DefaultLocale)
	}
	if cfg.SessionDuration != 2*time.Hour {
		t.Errorf("SessionDuration = %v, want 2h", cfg.SessionDuration)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SESSION_DURATION", "forever")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid SESSION_DURATION")
	}
}

func TestLoadDatabaseSkipsSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_TYPE", "sqlite")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should require SESSION_SECRET")
	}
	cfg, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() error = %v", err)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
}

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.AdminTokenHash = "$2a$10$abcdefghijklmnopqrstuuJ9n7b1Ck4n0XKNsq2WX5hLJo2dW0oHy"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "bad environment",
			mutate:  func(c *Config) { c.App.Environment = "staging" },
			wantErr: "APP_ENV",
		},
		{
			name:    "relative server address",
			mutate:  func(c *Config) { c.App.ServerAddress = "localhost:3000" },
			wantErr: "SERVER_ADDRESS",
		},
		{
			name:    "bad namespace",
			mutate:  func(c *Config) { c.App.SourceNamespace = "nope" },
			wantErr: "SOURCE_NAMESPACE",
		},
		{
			name:    "well known port",
			mutate:  func(c *Config) { c.HTTP.Port = 80 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "no workers",
			mutate:  func(c *Config) { c.Recompile.Workers = 0 },
			wantErr: "RECOMPILE_WORKERS",
		},
		{
			name:    "missing admin hash in prod",
			mutate:  func(c *Config) { c.Auth.AdminTokenHash = "" },
			wantErr: "ADMIN_TOKEN_HASH",
		},
		{
			name: "missing admin hash in dev",
			mutate: func(c *Config) {
				c.App.Environment = "dev"
				c.Auth.AdminTokenHash = ""
			},
		},
		{
			name:    "plain text admin token",
			mutate:  func(c *Config) { c.Auth.AdminTokenHash = "hunter2" },
			wantErr: "bcrypt",
		},
		{
			name:    "unknown storage provider",
			mutate:  func(c *Config) { c.Storage.Provider = "ftp" },
			wantErr: "STORAGE_PROVIDER",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Storage.Provider = "s3"; c.Storage.S3.Endpoint = "http://s3" },
			wantErr: "S3_BUCKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("HTTP_READ_TIMEOUT", "2s")
	t.Setenv("LOGGER_LEVEL", "debug")
	t.Setenv("RECOMPILE_WORKERS", "not a number")
	t.Setenv("MARKDOWN_SANITIZE", "true")
	t.Setenv("STORAGE_PROVIDER", "s3")
	t.Setenv("S3_BUCKET", "sources")

	cfg := LoadWithDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.HTTP.Timeouts.Read != 2*time.Second {
		t.Errorf("HTTP.Timeouts.Read = %s, want 2s", cfg.HTTP.Timeouts.Read)
	}
	if cfg.Logger.Level != slog.LevelDebug {
		t.Errorf("Logger.Level = %s, want debug", cfg.Logger.Level)
	}
	if cfg.Recompile.Workers != DefaultConfig().Recompile.Workers {
		t.Errorf("Recompile.Workers = %d, want the default", cfg.Recompile.Workers)
	}
	if !cfg.Markdown.Sanitize {
		t.Error("Markdown.Sanitize = false, want true")
	}
	if cfg.Storage.Provider != "s3" || cfg.Storage.S3.Bucket != "sources" {
		t.Errorf("Storage = %+v, want s3 provider with bucket", cfg.Storage)
	}
}

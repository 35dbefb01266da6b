package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8000/api" {
			t.Errorf("expected base URL http://localhost:8000/api, got %s", config.API.BaseURL)
		}

		if config.UI.LikeCooldown.Duration != time.Second {
			t.Errorf("expected like cooldown 1s, got %v", config.UI.LikeCooldown)
		}

		if config.UI.SearchDebounce.Duration != 500*time.Millisecond {
			t.Errorf("expected search debounce 500ms, got %v", config.UI.SearchDebounce)
		}

		if config.UI.SearchMinLength != 2 {
			t.Errorf("expected search min length 2, got %d", config.UI.SearchMinLength)
		}

		if config.Query.ReadRetries != 2 {
			t.Errorf("expected 2 read retries, got %d", config.Query.ReadRetries)
		}

		if config.Query.MaxBackoff.Duration != 30*time.Second {
			t.Errorf("expected max backoff 30s, got %v", config.Query.MaxBackoff)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://vinyl.example.com/api"

[ui]
like_cooldown = "250ms"

[sandbox]
port = 9090
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://vinyl.example.com/api" {
			t.Errorf("expected custom base URL, got %s", config.API.BaseURL)
		}

		if config.UI.LikeCooldown.Duration != 250*time.Millisecond {
			t.Errorf("expected like cooldown 250ms, got %v", config.UI.LikeCooldown)
		}

		if config.UI.PageSize != 20 {
			t.Errorf("expected unset page size to keep default 20, got %d", config.UI.PageSize)
		}

		if config.Sandbox.Addr() != "127.0.0.1:9090" {
			t.Errorf("expected sandbox addr 127.0.0.1:9090, got %s", config.Sandbox.Addr())
		}
	})

	t.Run("LoadConfig rejects bad values", func(t *testing.T) {
		tc := []struct {
			name string
			body string
		}{
			{name: "bad duration", body: "[ui]\nlike_cooldown = \"soon\"\n"},
			{name: "relative url", body: "[api]\nbase_url = \"/api\"\n"},
			{name: "zero min length", body: "[ui]\nsearch_min_length = 0\n"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				_, err := LoadConfig(path)
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}

package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.LogPath != filepath.Join(cfg.DataDir, "academy.log") {
		t.Fatalf("log path %q", cfg.LogPath)
	}
	if cfg.RemoteEnabled() {
		t.Fatalf("remote should be off by default")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":  func(c *Config) { c.Remote.Backend = "mongo" },
		"postgres": func(c *Config) { c.Remote.Backend = "postgres" },
		"rest":     func(c *Config) { c.Remote.Backend = "rest" },
		"retries":  func(c *Config) { c.Remote.Retries = -1 },
		"style":    func(c *Config) { c.UI.StyleVariant = "neon" },
		"motion":   func(c *Config) { c.UI.MotionLevel = "fast" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestValidateRestSharesAuthEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Remote.Backend = "rest"
	cfg.Remote.URL = "https://example.supabase.co"
	cfg.Remote.APIKey = "anon"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Auth.URL != cfg.Remote.URL || cfg.Auth.APIKey != "anon" {
		t.Fatalf("auth %+v", cfg.Auth)
	}
}

func TestLoadEnvOverlaysPrefixedVariables(t *testing.T) {
	t.Setenv("ACADEMY_REMOTE_BACKEND", "postgres")
	t.Setenv("ACADEMY_REMOTE_DATABASE_URL", "postgres://localhost/academy")
	t.Setenv("ACADEMY_REMOTE_TIMEOUT", "3s")
	t.Setenv("ACADEMY_UI_MOTION", "reduced")
	t.Setenv("ACADEMY_ASCII", "true")

	cfg := DefaultConfig()
	if err := LoadEnv(&cfg, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.Remote.Backend != "postgres" || cfg.Remote.Timeout != 3*time.Second {
		t.Fatalf("remote %+v", cfg.Remote)
	}
	if cfg.UI.MotionLevel != "reduced" || !cfg.ASCIIOnly {
		t.Fatalf("cfg %+v", cfg)
	}
}

func TestLoadEnvReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	body := strings.Join([]string{
		"ACADEMY_UI_STYLE=cozy_clean",
		"ACADEMY_DEV_ADDR=127.0.0.1:7331",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ACADEMY_DEV_ADDR", "127.0.0.1:9000")
	// Setenv restores the variable afterwards; unset it so the file applies.
	t.Setenv("ACADEMY_UI_STYLE", "")
	os.Unsetenv("ACADEMY_UI_STYLE")

	cfg := DefaultConfig()
	if err := LoadEnv(&cfg, path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.UI.StyleVariant != "cozy_clean" {
		t.Fatalf("style %q", cfg.UI.StyleVariant)
	}
	if cfg.DevAddr != "127.0.0.1:9000" {
		t.Fatalf("existing variables must win, got %q", cfg.DevAddr)
	}
}

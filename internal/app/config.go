package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "ACADEMY_"

// Config controls runtime behavior for the academy.
type Config struct {
	DataDir     string `env:"DATA_DIR"`
	LogPath     string `env:"LOG_PATH"`
	DevLogs     bool   `env:"DEV_LOGS"`
	DevAddr     string `env:"DEV_ADDR"`
	ContentDir  string `env:"CONTENT_DIR"`
	ASCIIOnly   bool   `env:"ASCII"`
	DebugLayout bool   `env:"DEBUG_LAYOUT"`

	Remote RemoteConfig `envPrefix:"REMOTE_"`
	Auth   AuthConfig   `envPrefix:"AUTH_"`
	UI     UIConfig     `envPrefix:"UI_"`
}

type RemoteConfig struct {
	// Backend is one of none, memory, postgres or rest.
	Backend     string        `env:"BACKEND"`
	DatabaseURL string        `env:"DATABASE_URL"`
	URL         string        `env:"URL"`
	APIKey      string        `env:"API_KEY"`
	Timeout     time.Duration `env:"TIMEOUT"`
	Retries     int           `env:"RETRIES"`
}

type AuthConfig struct {
	URL       string `env:"URL"`
	APIKey    string `env:"API_KEY"`
	JWTSecret string `env:"JWT_SECRET"`
}

// UIConfig values left empty fall back to what the learner used last time.
type UIConfig struct {
	StyleVariant string `env:"STYLE"`
	MotionLevel  string `env:"MOTION"`
}

func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			Backend: "none",
			Timeout: 10 * time.Second,
		},
	}
}

// LoadEnv overlays ACADEMY_* variables onto cfg. Dotenv files are read
// first and never override variables already set; missing files are
// skipped.
func LoadEnv(cfg *Config, dotenv ...string) error {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Remote.Backend {
	case "", "none":
		c.Remote.Backend = "none"
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Remote.DatabaseURL) == "" {
			return errors.New("remote backend postgres needs a database url")
		}
	case "rest":
		if strings.TrimSpace(c.Remote.URL) == "" {
			return errors.New("remote backend rest needs a url")
		}
	default:
		return fmt.Errorf("invalid remote backend %q", c.Remote.Backend)
	}
	if c.Remote.Retries < 0 {
		return fmt.Errorf("invalid remote retries %d", c.Remote.Retries)
	}
	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = 10 * time.Second
	}
	if c.Auth.URL == "" && c.Remote.Backend == "rest" {
		c.Auth.URL = c.Remote.URL
		if c.Auth.APIKey == "" {
			c.Auth.APIKey = c.Remote.APIKey
		}
	}

	switch c.UI.StyleVariant {
	case "", "modern_arcade", "cozy_clean", "retro_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "academy")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.DataDir, "academy.log")
	}
	return nil
}

// RemoteEnabled reports whether progress syncs to an account.
func (c Config) RemoteEnabled() bool {
	return c.Remote.Backend != "" && c.Remote.Backend != "none"
}

package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all client configuration loaded from environment variables.
type Config struct {
	// APIBaseURL is the REST API root, e.g. "https://pland.example.com/api"
	APIBaseURL string `envconfig:"PLAND_API_URL" required:"true"`

	// APIToken authenticates every REST and WebSocket request.
	APIToken string `envconfig:"PLAND_API_TOKEN" required:"true"`

	// WSURL is the live-update channel. Derived from APIBaseURL when empty.
	WSURL string `envconfig:"PLAND_WS_URL"`

	LogLevel string `envconfig:"PLAND_LOG_LEVEL" default:"info"`

	// LogFile receives structured logs. The TUI owns the terminal, so logs
	// never go to stderr while the program runs.
	LogFile string `envconfig:"PLAND_LOG_FILE"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// WebSocketURL resolves the live-channel endpoint, deriving it from the
// API base URL when PLAND_WS_URL is unset.
func (c *Config) WebSocketURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	ws := c.APIBaseURL
	ws = strings.Replace(ws, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return strings.TrimSuffix(ws, "/") + "/ws"
}

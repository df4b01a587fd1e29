package config

import "time"

// Config holds runtime settings for the refkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the refkeeper HTTP API.
//   - RequestTimeout: per-request deadline for API calls.
//   - SessionDB: path of the local SQLite file that keeps the login session.
type Config struct {
	ServerURL      string        `env:"SERVER_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	SessionDB      string        `env:"SESSION_DB"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.SessionDB = ".refkeeper/session.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

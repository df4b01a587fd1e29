package config

import "github.com/caarlos0/env/v6"

// parseEnv overlays fields whose environment variable is set.
func parseEnv(cfg *Config) {
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}

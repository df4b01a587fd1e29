package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/refkeeper/internal/flagx"
)

// parseEnv loads the dotenv file (-env-file, or ./.env when present) into the
// process environment without overriding variables that are already set, then
// overlays every Config field whose env variable is non-empty.
func parseEnv(config *Config) {
	if err := loadDotEnv(flagx.EnvFileFlags()); err != nil {
		panic(err)
	}

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}

func loadDotEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment overrides read by the CLI.
const (
	EnvDB    = "GRADEPOINT_DB"
	EnvPGURL = "GRADEPOINT_PG_URL"
)

// LoadEnv loads KEY=value pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// PGURL returns the Postgres URL from the environment, if any.
func PGURL() string {
	return os.Getenv(EnvPGURL)
}

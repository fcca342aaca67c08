// Package config holds the process level configuration: the logger and the
// environment variables that provide flag defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvDir            = "BOOKS_DIR"
	EnvStore          = "BOOKS_STORE"
	EnvDSN            = "BOOKS_DSN"
	EnvLogLevel       = "BOOKS_LOG_LEVEL"
	EnvAutoBackupFile = "BOOKS_AUTOBACKUP_FILE"
	EnvAutoBackupWait = "BOOKS_AUTOBACKUP_DELAY"
	EnvPassphrase     = "BOOKS_PASSPHRASE"
)

func init() {
	// Load env from .env, a missing file is fine.
	godotenv.Load()
}

// Env returns the value of key or def when it is unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt returns the integer value of key or def when it is unset or invalid.
func EnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// EnvDuration returns the duration value of key or def when it is unset or invalid.
func EnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// DefaultDir is the books directory when BOOKS_DIR is not set.
func DefaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".books")
	}
	return ".books"
}

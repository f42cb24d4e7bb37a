// Package config loads process configuration from .env files and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDatabase = "VENTSIM_DB"
	EnvLogLevel = "VENTSIM_LOG_LEVEL"
	EnvProfile  = "VENTSIM_PROFILE"
	EnvWorkers  = "VENTSIM_WORKERS"
)

// Config holds the process configuration. Command-line flags override it.
type Config struct {
	// DatabasePath is the SQLite run store.
	DatabasePath string

	// LogLevel is the minimum level written to stderr.
	LogLevel slog.Level

	// ProfilePath is a parameter profile applied when no --profile flag is given.
	ProfilePath string

	// Workers bounds sweep parallelism.
	Workers int
}

// Load reads the first .env file found, then the environment.
// Variables already set in the environment win over .env values.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			break
		}
	}

	level, err := parseLevel(getEnvString(EnvLogLevel, "warn"))
	if err != nil {
		return nil, err
	}

	workers, err := getEnvInt(EnvWorkers, runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", EnvWorkers, workers)
	}

	return &Config{
		DatabasePath: getEnvString(EnvDatabase, getDefaultDatabasePath()),
		LogLevel:     level,
		ProfilePath:  getEnvString(EnvProfile, ""),
		Workers:      workers,
	}, nil
}

// getEnvPaths returns the .env candidates in lookup order.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ventsim", ".env"))
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the run store.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ventsim.db"
	}
	return filepath.Join(home, ".config", "ventsim", "runs.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
// A set but malformed value is an error.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	return level, nil
}

package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultConfigPath is the default path to the config file
	DefaultAppName    = "tbatch"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultStorePath  = filepath.Join(DefaultConfigPath, "examples.db")

	// Default collation settings
	DefaultStoreDSN = "file::memory:?cache=shared" // Default to in-memory SQLite
)

const (
	// DefaultIgnoreIndex is the label sentinel excluded from loss computation.
	DefaultIgnoreIndex int64 = -100

	// DefaultMaskProbability is the per-position corruption rate for masked-LM batches.
	DefaultMaskProbability = 0.15

	// DefaultMaskReplaceFraction is the fraction of masked positions rewritten to the mask token.
	DefaultMaskReplaceFraction = 0.8
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			// Last resort - use tmp directory
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

package utils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// Level sets the minimum log level (debug, info, warn, error, fatal, panic)
	Level string
	// Pretty enables pretty console output for development
	Pretty bool
	// CallerInfo adds file and line number to logs
	CallerInfo bool
	// LogFile specifies the log file path (empty means stderr)
	LogFile string
}

// NewLogger creates a new logger instance with the given configuration
func NewLogger(config LoggerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer = os.Stderr

	if config.LogFile != "" {
		logDir := filepath.Dir(config.LogFile)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err == nil {
				output = file
			}
		}
		// Fall back to stderr if the log file cannot be opened
	}

	// Pretty formatting only applies to terminal output
	if config.Pretty && config.LogFile == "" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	if config.CallerInfo {
		logger = logger.With().Caller().Logger()
	}

	return logger
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level: "info",
	}
}

// DevelopmentConfig returns a logger configuration suitable for development
func DevelopmentConfig() LoggerConfig {
	return LoggerConfig{
		Level:      "debug",
		Pretty:     true,
		CallerInfo: true,
	}
}

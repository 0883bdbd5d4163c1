// Package logger provides the ambient operational logger for forgeauth.
// It is strictly separate from internal/audit, which owns the
// plaintext security audit trail mandated by the external interface
// contract; this package is for diagnostics only.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global ambient logger, configured by Initialize.
var Log zerolog.Logger

// Initialize configures the global logger's level and output format.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().
		Str("service", "forgeauth").
		Logger()

	Log.Info().
		Str("level", logLevel.String()).
		Bool("pretty", pretty).
		Msg("logger initialized")
}

// GetLogger returns the global logger instance.
func GetLogger() *zerolog.Logger {
	return &Log
}

// TokenStore creates a logger scoped to token persistence events.
func TokenStore() *zerolog.Logger {
	l := Log.With().Str("component", "tokenstore").Logger()
	return &l
}

// Security creates a logger scoped to authentication/authorization events.
func Security() *zerolog.Logger {
	l := Log.With().Str("component", "security").Logger()
	return &l
}

// Sanitize creates a logger scoped to input sanitization events.
func Sanitize() *zerolog.Logger {
	l := Log.With().Str("component", "sanitize").Logger()
	return &l
}

// Handoff creates a logger scoped to handoff store events.
func Handoff() *zerolog.Logger {
	l := Log.With().Str("component", "handoff").Logger()
	return &l
}

// CLI creates a logger scoped to the command-line entry point.
func CLI() *zerolog.Logger {
	l := Log.With().Str("component", "cli").Logger()
	return &l
}

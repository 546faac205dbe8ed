// Package logging constructs the core's zerolog logger from Config.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
)

// New returns a configured zerolog.Logger for the given environment.
func New(cfg *config.Config) zerolog.Logger {
	var out io.Writer
	lvl := zerolog.InfoLevel

	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
		lvl = zerolog.DebugLevel
	} else {
		out = os.Stderr
	}

	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		lvl = parsed
	}

	zerolog.SetGlobalLevel(lvl)
	return zerolog.New(out).With().Timestamp().Logger()
}

package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/config"
)

// New returns a configured zerolog.Logger.
func New(cfg *config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	lvl := zerolog.InfoLevel
	if cfg.Env == "development" {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return zerolog.New(out).With().Timestamp().Logger()
}

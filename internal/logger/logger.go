package logger

import (
	"io"
	"os"

	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func New(cfg *config.Config) zerolog.Logger {
	return build(os.Stdout, ParseLevel(cfg.LogLevel))
}

// ParseLevel falls back to info for unknown or empty levels.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func build(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(level)
}

var Module = fx.Provide(New)

package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger configures the global zerolog logger and returns it. Components
// log through the package-level github.com/rs/zerolog/log helpers, so this
// must run before anything else in main.
func NewLogger() *zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(os.Getenv("ZAP_LOG_LEVEL")); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}
	logger = logger.Level(level)

	log.Logger = logger
	return &logger
}

package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger every component derives its sub-logger from.
// format "pretty" switches to the human-readable console writer for local
// development; anything else emits JSON lines. Unknown levels fall back to
// info rather than failing startup.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	if format == "pretty" {
		log = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
	return log
}

package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger writes colored console logs to stderr. Debug mode also records
// the caller so retry and gate decisions can be traced to their source.
func InitLogger(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	ctx := consoleLogger(os.Stderr, time.DateTime, false).With()
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}

// SetLogOutput redirects the global logger, used to keep log lines out of
// the live display. The level set by InitLogger is kept.
func SetLogOutput(w io.Writer) {
	log.Logger = consoleLogger(w, time.RFC3339, true)
}

func consoleLogger(w io.Writer, timeFormat string, noColor bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
		NoColor:    noColor,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "bfsp").Logger()
}

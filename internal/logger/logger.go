package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the process logger. Log lines go to stderr so the report
// stream on stdout stays readable when piped.
func Init(level string) {
	InitWithWriter(level, os.Stderr)
}

func InitWithWriter(level string, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger = log.With().Caller().Logger()
}

func GetLogger() *zerolog.Logger {
	return &logger
}

// Chain returns a child logger tagged with the chain name
func Chain(name string) *zerolog.Logger {
	l := logger.With().Str("chain", name).Logger()
	return &l
}

package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Dev mode logs at debug level through a
// console writer; everything else is JSON at info level.
func New(mode string) zerolog.Logger {
	return NewWithWriter(mode, os.Stdout)
}

// NewWithWriter is New with an explicit output, used by tests
func NewWithWriter(mode string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if mode == "dev" && w == os.Stdout {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(w).With().Timestamp().Str("service", "campus-aid-buddy").Logger()
	if mode == "dev" {
		return l.Level(zerolog.DebugLevel)
	}
	return l.Level(zerolog.InfoLevel)
}

// Nop returns a logger that discards everything
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

package bqpipe

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// NewLogger builds the logger the clients use. Level accepts the zerolog
// level names and the empty string, which means info. Pretty prints
// human friendly logs instead of JSON.
func NewLogger(level string, pretty bool) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		l, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), xerrors.Errorf("failed to parse log level: %w", err)
		}
		lvl = l
	}

	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns a logger writing to logPath. Stdout belongs to the TUI, so all
// diagnostics go to a file; pass debug=true to lower the level.
func New(logPath string, debug bool) (zerolog.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return zerolog.Nop(), err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), err
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(f).Level(level).With().
		Timestamp().
		Logger()
	return logger, nil
}

// NewWriter returns a logger for tests or callers that already own a sink.
func NewWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

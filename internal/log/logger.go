package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production logs are uncoloured and default
// to info level; development defaults to debug. An explicit level overrides
// the environment default. Format "json" emits one JSON object per line.
func New(environment, level, format string) zerolog.Logger {
	return NewWithWriter(os.Stderr, environment, level, format)
}

// NewWithWriter is New with a caller-supplied destination.
func NewWithWriter(w io.Writer, environment, level, format string) zerolog.Logger {
	production := strings.EqualFold(environment, "production")

	out := w
	if !strings.EqualFold(format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    production,
		}
	}

	lvl := zerolog.DebugLevel
	if production {
		lvl = zerolog.InfoLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("env", environment).
		Logger()
}

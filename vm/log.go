package vm

import (
	"io"

	"github.com/rs/zerolog"
)

// NewLogger builds a zerolog logger writing human-readable console output
// to w, filtered to level (e.g. zerolog.InfoLevel, zerolog.DebugLevel).
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// ParseLevel maps a CLI-facing level name to a zerolog.Level, defaulting to
// InfoLevel for an unrecognized name.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

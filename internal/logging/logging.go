// Package logging builds the application slog.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Log formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a logger writing to w in the given format. The text format
// is rendered by charmbracelet/log, which levels the same way slog does.
func New(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	switch format {
	case "", FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	case FormatText:
		handler := charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
			Level:           charmlog.Level(level),
		})
		return slog.New(handler), nil
	}
	return nil, fmt.Errorf("logging: unknown format %q", format)
}

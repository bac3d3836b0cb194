package config

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger returns a logger writing to w in LogFormat at LogLevel. The text
// format is colored for terminals.
func (c *ServerConfig) NewLogger(w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch c.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.Level()})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      c.Level(),
			TimeFormat: time.TimeOnly,
			NoColor:    c.Environment == "production",
		})
	}
	return slog.New(handler)
}

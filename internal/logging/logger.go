package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"surfsup-server/internal/config"
)

// New returns the process logger: colored text for dev builds, JSON otherwise.
func New(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if version == "dev" && cfg.AppEnv == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}

package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"mareo-monitor/internal/config"
)

// New returns a colored text logger for dev builds and a JSON logger otherwise
func New(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if cfg.AppEnv == "dev" || version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  cfg.LogLevel == slog.LevelDebug,
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

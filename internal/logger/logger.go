package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Constants for different environment types.
const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvProd  = "production"
)

// New initializes and returns a logger writing to w based on the environment provided.
func New(env string, w io.Writer) *slog.Logger {
	return slog.New(NewHandler(env, w))
}

// NewHandler returns the slog handler used for env. Local runs get colored
// text output, other environments get JSON with decreasing verbosity.
func NewHandler(env string, w io.Writer) slog.Handler {
	switch env {
	case EnvLocal:
		return tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			AddSource:  true,
			TimeFormat: time.TimeOnly,
		})
	case EnvDev:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		})
	case EnvProd:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       slog.LevelWarn,
			AddSource:   false,
			ReplaceAttr: dropTime,
		})
	default:
		handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       slog.LevelError,
			AddSource:   false,
			ReplaceAttr: dropTime,
		})

		slog.New(handler).Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))

		return handler
	}
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}

	return a
}

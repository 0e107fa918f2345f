package logger

import (
	"io"
	"log/slog"

	"github.com/go-chi/httplog/v3"
)

const AppName = "hrms-attendance"

// Version is overridden at build time with -ldflags "-X ...logger.Version=...".
var Version = "dev"

// New returns a JSON logger whose attribute keys follow the ECS schema used
// by the request logger, tagged with the app name, version and environment.
func New(w io.Writer, level slog.Level, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", AppName),
		slog.String("version", Version),
		slog.String("env", env),
	)
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/Aktiar0403/ShukkuList1.2/internal/config"
)

// level is shared by the stderr handler and any handler added with Attach.
var level slog.LevelVar

// Setup configures the default slog logger based on the provided config.
// This also bridges the standard "log" package via slog.SetDefault.
func Setup(cfg config.LogConfig) {
	level.Set(ParseLevel(cfg.Level))
	slog.SetDefault(New(os.Stderr, cfg))
}

// Attach mirrors every record of the default logger into h, filtered at the
// configured level. Call it after Setup.
func Attach(h slog.Handler) {
	slog.SetDefault(slog.New(Tee(slog.Default().Handler(), Leveled(h, &level))))
}

// New builds a logger writing to w with the configured level and format.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ctxKey struct{}

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

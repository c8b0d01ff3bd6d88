package logging

import (
	"context"
	"errors"
	"log/slog"
)

type teeHandler []slog.Handler

// Tee sends each record to every handler that accepts its level.
func Tee(handlers ...slog.Handler) slog.Handler {
	return teeHandler(handlers)
}

func (t teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

type leveledHandler struct {
	slog.Handler
	floor slog.Leveler
}

// Leveled drops records below floor before they reach h.
func Leveled(h slog.Handler, floor slog.Leveler) slog.Handler {
	return leveledHandler{Handler: h, floor: floor}
}

func (l leveledHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return lvl >= l.floor.Level() && l.Handler.Enabled(ctx, lvl)
}

func (l leveledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return leveledHandler{Handler: l.Handler.WithAttrs(attrs), floor: l.floor}
}

func (l leveledHandler) WithGroup(name string) slog.Handler {
	return leveledHandler{Handler: l.Handler.WithGroup(name), floor: l.floor}
}

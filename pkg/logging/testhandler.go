package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
)

// TB is the subset of testing.TB the test handler needs.
type TB interface {
	Helper()
	Log(args ...any)
}

// TestHandler is a slog.Handler that writes each record to a test's log.
type TestHandler struct {
	t     TB
	level slog.Leveler
	mu    *sync.Mutex
	buf   *bytes.Buffer
	inner slog.Handler
}

// NewTestHandler creates a handler that logs text records through t.Log.
func NewTestHandler(t TB, level slog.Leveler) *TestHandler {
	if level == nil {
		level = LevelInfo
	}
	buf := &bytes.Buffer{}
	return &TestHandler{
		t:     t,
		level: level,
		mu:    &sync.Mutex{},
		buf:   buf,
		inner: slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && a.Key == slog.TimeKey {
					return slog.Attr{}
				}
				return a
			},
		}),
	}
}

// Enabled reports whether level is at or above the handler's level.
func (h *TestHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats r and passes it to t.Log.
func (h *TestHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	h.t.Helper()
	h.t.Log(strings.TrimSuffix(h.buf.String(), "\n"))
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *TestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.inner = h.inner.WithAttrs(attrs)
	return &cp
}

// WithGroup returns a handler that nests later attributes under name.
func (h *TestHandler) WithGroup(name string) slog.Handler {
	cp := *h
	cp.inner = h.inner.WithGroup(name)
	return &cp
}

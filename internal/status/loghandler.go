package status

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogHandler mirrors log records of at least Info level to a Broadcaster as
// "[HH:MM:SS] message key=value" lines and passes every record on to next.
type LogHandler struct {
	next   slog.Handler
	out    *Broadcaster
	attrs  string
	groups string
}

// NewLogHandler wraps next.
func NewLogHandler(next slog.Handler, out *Broadcaster) *LogHandler {
	return &LogHandler{next: next, out: out}
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.next.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] %s", r.Time.Format("15:04:05"), r.Message)
		b.WriteString(h.attrs)
		r.Attrs(func(a slog.Attr) bool {
			writeAttr(&b, h.groups, a)
			return true
		})
		h.out.Publish(b.String())
	}

	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}

	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.groups, a)
	}

	return &LogHandler{next: h.next.WithAttrs(attrs), out: h.out, attrs: b.String(), groups: h.groups}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &LogHandler{next: h.next.WithGroup(name), out: h.out, attrs: h.attrs, groups: h.groups + name + "."}
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, inner := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", inner)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value.Any())
}

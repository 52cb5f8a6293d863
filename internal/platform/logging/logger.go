package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/janisto/linkglyph/internal/platform/timeutil"
)

var current atomic.Pointer[slog.Logger]

// Options configure the process logger.
type Options struct {
	Level slog.Level
	// Service and Version populate serviceContext, which Cloud Error Reporting
	// uses to group errors.
	Service string
	Version string
	Writer  io.Writer
}

// gcpHandler keeps record times in UTC so timestamps never carry a zone offset.
type gcpHandler struct {
	slog.Handler
}

func (h *gcpHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Time = r.Time.UTC()
	return h.Handler.Handle(ctx, r)
}

func (h *gcpHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &gcpHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *gcpHandler) WithGroup(name string) slog.Handler {
	return &gcpHandler{Handler: h.Handler.WithGroup(name)}
}

// gcpLevelNames maps slog levels to GCP Cloud Logging severity strings.
var gcpLevelNames = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARNING",
	slog.LevelError: "ERROR",
	levelCritical:   "CRITICAL",
	levelAlert:      "ALERT",
	levelEmergency:  "EMERGENCY",
}

const (
	levelCritical  = slog.LevelError + 4
	levelAlert     = slog.LevelError + 8
	levelEmergency = slog.LevelError + 12
)

// gcpAttr renames the built-in keys to the Cloud Logging structured fields.
func gcpAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(timeutil.RFC3339Micros))
	case slog.LevelKey:
		a.Key = "severity"
		if level, ok := a.Value.Any().(slog.Level); ok {
			if name, found := gcpLevelNames[level]; found {
				a.Value = slog.StringValue(name)
			}
		}
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func newLogger(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: gcpAttr,
	})

	l := slog.New(&gcpHandler{Handler: h})
	if opts.Service != "" {
		l = l.With(slog.Group("serviceContext",
			slog.String("service", opts.Service),
			slog.String("version", opts.Version),
		))
	}
	return l
}

// Configure replaces the process-wide logger. Loggers already captured from
// Logger keep their previous settings.
func Configure(opts Options) *slog.Logger {
	l := newLogger(opts)
	current.Store(l)
	return l
}

// Logger returns the process-wide slog.Logger instance, creating an INFO
// logger on stdout if Configure was never called.
func Logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	current.CompareAndSwap(nil, newLogger(Options{}))
	return current.Load()
}

// ParseLevel accepts debug, info, warn, warning and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "warning" {
		s = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

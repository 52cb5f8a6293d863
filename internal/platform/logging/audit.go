package logging

import (
	"context"
	"log/slog"
)

// AuditEvent records a write against a stored resource.
type AuditEvent struct {
	Action     string
	ActorID    string
	Resource   string
	ResourceID string
	// Reason categorizes a failed action; empty means the action succeeded.
	Reason string
}

// LogAudit writes an audit entry. Failures are logged at WARNING.
func LogAudit(ctx context.Context, ev AuditEvent) {
	actor := ev.ActorID
	if actor == "" {
		actor = "anonymous"
	}

	level, result := slog.LevelInfo, "success"
	attrs := []slog.Attr{
		slog.String("audit.action", ev.Action),
		slog.String("audit.actor", actor),
		slog.String("audit.resource_type", ev.Resource),
		slog.String("audit.resource_id", ev.ResourceID),
	}
	if ev.Reason != "" {
		level, result = slog.LevelWarn, "failure"
		attrs = append(attrs, slog.String("audit.reason", ev.Reason))
	}
	attrs = append(attrs, slog.String("audit.result", result))
	if traceID := TraceIDFromContext(ctx); traceID != nil {
		attrs = append(attrs, slog.String("audit.trace", *traceID))
	}

	LoggerFromContext(ctx).LogAttrs(ctx, level, "audit", attrs...)
}

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits structured audit records for tenant-visible actions.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates an audit logger on top of the application logger.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogAction records one auditable action.
func (al *Logger) LogAction(ctx context.Context, tenantID, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("tenant_id", tenantID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

// LogDenied records a rejected access attempt.
func (al *Logger) LogDenied(ctx context.Context, tenantID, userID, reason string) {
	al.LogAction(ctx, tenantID, userID, "access_denied", "api", "", "denied", reason)
}

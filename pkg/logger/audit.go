package logger

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Audit event types
const (
	EventSignup      = "signup"
	EventSignin      = "signin"
	EventGoogleLogin = "google_signin"
	EventSignout     = "signout"
	EventBanned      = "signin_banned"
	EventUserUpdate  = "user_update"
	EventUserDelete  = "user_delete"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Email         string // masked before it is written
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit records through slog
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

func (al *AuditLogger) log(ctx context.Context, auditType string, success bool, attrs []slog.Attr) {
	attrs = append([]slog.Attr{
		slog.String("audit_type", auditType),
		slog.Bool("success", success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}, attrs...)

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogAuthAttempt logs authentication attempts
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{slog.String("event_type", event.EventType)}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.log(ctx, "auth", event.Success, attrs)
}

// LogBan records a login refused because the identifier is serving a ban
func (al *AuditLogger) LogBan(ctx context.Context, email, ipAddress string, retryAfter int) {
	al.LogAuthAttempt(ctx, AuditEvent{
		EventType:     EventBanned,
		Email:         email,
		IPAddress:     ipAddress,
		FailureReason: "temporarily_banned",
		Metadata:      map[string]string{"retry_after": strconv.Itoa(retryAfter)},
	})
}

// LogAccountAction logs general account actions
func (al *AuditLogger) LogAccountAction(ctx context.Context, eventType, userID, ipAddress string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("event_type", eventType),
		slog.String("user_id", userID),
	}

	if ipAddress != "" {
		attrs = append(attrs, slog.String("ip_address", ipAddress))
	}
	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.log(ctx, "account", true, attrs)
}

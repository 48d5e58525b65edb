package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/BradenHooton/tradepost/internal/throttle"
	pkglogger "github.com/BradenHooton/tradepost/pkg/logger"
)

// LoginThrottleService applies the login throttle to sign-in attempts.
// Throttle backend errors are logged and treated as "not banned" so an
// unreachable Redis never locks every user out.
type LoginThrottleService struct {
	throttle    throttle.Throttle
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewLoginThrottleService(t throttle.Throttle, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *LoginThrottleService {
	return &LoginThrottleService{
		throttle:    t,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// NormalizeIdentifier maps an email to the key the throttle tracks
func NormalizeIdentifier(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Admit returns a *models.BanError when identifier is serving a ban
func (s *LoginThrottleService) Admit(ctx context.Context, identifier, ipAddress string, now time.Time) error {
	decision, err := s.throttle.CheckAdmission(ctx, identifier, now)
	if err != nil {
		s.logger.Error("login throttle check failed",
			slog.String("email", pkglogger.SanitizedEmail(identifier)),
			slog.Any("error", err))
		return nil
	}

	if !decision.Banned {
		return nil
	}

	retryAfter := decision.RetryAfterSeconds()
	s.logger.Info("signin rejected: temporarily banned",
		slog.String("email", pkglogger.SanitizedEmail(identifier)),
		slog.Int("retry_after", retryAfter))
	s.auditLogger.LogBan(ctx, identifier, ipAddress, retryAfter)

	return &models.BanError{RetryAfter: retryAfter}
}

// Failure counts one failed credential check
func (s *LoginThrottleService) Failure(ctx context.Context, identifier string, now time.Time) {
	if err := s.throttle.RecordFailure(ctx, identifier, now); err != nil {
		s.logger.Error("failed to record login failure",
			slog.String("email", pkglogger.SanitizedEmail(identifier)),
			slog.Any("error", err))
	}
}

// Success clears any failures recorded for identifier
func (s *LoginThrottleService) Success(ctx context.Context, identifier string) {
	if err := s.throttle.RecordSuccess(ctx, identifier); err != nil {
		s.logger.Error("failed to clear login failures",
			slog.String("email", pkglogger.SanitizedEmail(identifier)),
			slog.Any("error", err))
	}
}

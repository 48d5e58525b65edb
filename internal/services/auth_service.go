package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/BradenHooton/tradepost/internal/auth"
	"github.com/BradenHooton/tradepost/internal/models"
	pkgauth "github.com/BradenHooton/tradepost/pkg/auth"
	pkglogger "github.com/BradenHooton/tradepost/pkg/logger"
)

// TokenRevocationRepository defines the interface for token revocation operations
type TokenRevocationRepository interface {
	RevokeToken(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error
}

// GoogleVerifier validates Google ID tokens
type GoogleVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, rawToken string) (*models.GoogleIdentity, error)
}

// SessionSettings controls how long issued sessions last
type SessionSettings struct {
	SessionTTL       time.Duration
	GoogleSessionTTL time.Duration
}

// Session is a freshly issued login
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	revokeRepo  TokenRevocationRepository
	tm          *auth.TokenManager
	guard       *LoginThrottleService
	timing      *auth.TimingDelay
	google      GoogleVerifier
	settings    SessionSettings
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewAuthService(
	repo UserRepository,
	tm *auth.TokenManager,
	revokeRepo TokenRevocationRepository,
	guard *LoginThrottleService,
	timing *auth.TimingDelay,
	google GoogleVerifier,
	settings SessionSettings,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		revokeRepo:  revokeRepo,
		tm:          tm,
		guard:       guard,
		timing:      timing,
		google:      google,
		settings:    settings,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Signup creates a password account
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	email = NormalizeIdentifier(email)
	username = strings.TrimSpace(username)

	if err := pkgauth.ValidateEmail(email); err != nil {
		return nil, models.ErrInvalidEmail
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidPassword, err)
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("signup rejected: username or email taken")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user signed up", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventSignup,
		UserID:    user.ID,
		Success:   true,
	})

	return user, nil
}

// SignIn checks credentials under the login throttle and issues a session.
// A banned identifier gets a *models.BanError before any credential lookup.
// Unknown emails and wrong passwords both count as failures and return
// ErrUnauthorized; storage errors return ErrInternalServer and are not counted.
func (s *AuthService) SignIn(ctx context.Context, email, password, ipAddress string) (*Session, error) {
	start := time.Now()
	identifier := NormalizeIdentifier(email)

	if err := s.guard.Admit(ctx, identifier, ipAddress, s.now()); err != nil {
		return nil, err
	}

	reject := func(userID, reason string) error {
		s.guard.Failure(ctx, identifier, s.now())
		s.logger.Info("signin failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventSignin,
			UserID:        userID,
			Email:         identifier,
			IPAddress:     ipAddress,
			FailureReason: reason,
		})
		s.timing.WaitFrom(ctx, start, false)
		return models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, reject("", "unknown_email")
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, reject(user.ID, "invalid_password")
	}

	s.guard.Success(ctx, identifier)

	session, err := s.issueSession(user, s.settings.SessionTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventSignin,
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return session, nil
}

// GoogleSignIn logs in the account matching a verified Google identity,
// creating it on first use
func (s *AuthService) GoogleSignIn(ctx context.Context, idToken, name, photo, ipAddress string) (*Session, error) {
	if s.google == nil || !s.google.Enabled() {
		return nil, models.ErrNotConfigured
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.logger.Info("google signin rejected", slog.Any("error", err))
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventGoogleLogin,
			IPAddress:     ipAddress,
			FailureReason: "invalid_id_token",
		})
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		if name == "" {
			name = identity.Name
		}
		if photo == "" {
			photo = identity.Picture
		}
		user, err = s.createGoogleUser(ctx, identity.Email, name, photo)
		if err != nil {
			return nil, err
		}
	case err != nil:
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	session, err := s.issueSession(user, s.settings.GoogleSessionTTL)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventGoogleLogin,
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return session, nil
}

const maxUsernameAttempts = 5

func (s *AuthService) createGoogleUser(ctx context.Context, email, name, photo string) (*models.User, error) {
	password, err := pkgauth.RandomPassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		username, err := usernameFromName(name)
		if err != nil {
			return nil, models.ErrInternalServer
		}

		taken, err := s.repo.UsernameExists(ctx, username)
		if err != nil {
			s.logger.Error("failed to check username", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if taken {
			continue
		}

		user, err := s.repo.Create(ctx, &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Avatar:       photo,
		})
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			s.logger.Error("failed to create google user", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.logger.Info("user created from google signin", slog.String("user_id", user.ID))
		return user, nil
	}

	s.logger.Error("could not find a free username for google signin")
	return nil, models.ErrConflict
}

const usernameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// usernameFromName lowercases the display name, drops its whitespace and
// appends four random characters
func usernameFromName(name string) (string, error) {
	base := strings.ToLower(strings.Join(strings.Fields(name), ""))
	if base == "" {
		base = "user"
	}

	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(usernameAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate username: %w", err)
		}
		suffix[i] = usernameAlphabet[n.Int64()]
	}

	return base + string(suffix), nil
}

// SignOut revokes the presented session token
func (s *AuthService) SignOut(ctx context.Context, claims *models.TokenClaims) error {
	if claims == nil {
		return nil
	}

	expiresAt := s.now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.revokeRepo.RevokeToken(ctx, claims.ID, claims.UserID, expiresAt, "signout"); err != nil {
		s.logger.Error("failed to revoke session token",
			slog.String("user_id", claims.UserID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventSignout,
		UserID:    claims.UserID,
		Success:   true,
	})
	return nil
}

func (s *AuthService) issueSession(user *models.User, ttl time.Duration) (*Session, error) {
	token, claims, err := s.tm.GenerateSessionToken(user.ID, ttl)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &Session{
		User:      user,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

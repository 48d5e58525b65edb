package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/BradenHooton/tradepost/pkg/auth"
	pkglogger "github.com/BradenHooton/tradepost/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// SessionRevoker ends every session a user holds
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID string, until time.Time, reason string) error
}

// ProfileUpdate is a self-service profile change; nil fields are left alone
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
	Avatar   *string
}

// UserService handles user business logic
type UserService struct {
	repo        UserRepository
	listings    ListingRepository
	sessions    SessionRevoker
	maxSession  time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewUserService creates a user service. maxSession is the longest lifetime
// of any session token, so account-wide revocations outlive them all.
func NewUserService(repo UserRepository, listings ListingRepository, sessions SessionRevoker, maxSession time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		listings:    listings,
		sessions:    sessions,
		maxSession:  maxSession,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// UpdateUser changes the caller's own profile. Other accounts are ErrUnauthorized.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id string, req ProfileUpdate) (*models.User, error) {
	if actorID != id {
		s.logger.Warn("user update denied", slog.String("actor_id", actorID), slog.String("user_id", id))
		return nil, models.ErrUnauthorized
	}

	update := models.UserUpdate{Username: req.Username, Avatar: req.Avatar}

	if req.Email != nil {
		email := NormalizeIdentifier(*req.Email)
		update.Email = &email
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		update.Username = &username
	}

	changed := []string{}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidPassword, err)
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("failed to hash password", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		update.PasswordHash = &hash
		changed = append(changed, "password")
	}

	user, err := s.repo.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if update.Username != nil {
		changed = append(changed, "username")
	}
	if update.Email != nil {
		changed = append(changed, "email")
	}
	if update.Avatar != nil {
		changed = append(changed, "avatar")
	}
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventUserUpdate, id, "", map[string]string{
		"fields": strings.Join(changed, ","),
	})

	return user, nil
}

// DeleteUser removes the caller's own account and every listing it owns.
// All sessions of the account are revoked first, so no copy of a token
// outlives the account.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID != id {
		s.logger.Warn("user delete denied", slog.String("actor_id", actorID), slog.String("user_id", id))
		return models.ErrUnauthorized
	}

	if err := s.sessions.RevokeUserSessions(ctx, id, s.now().Add(s.maxSession), "account_deleted"); err != nil {
		s.logger.Error("failed to revoke user sessions", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	removed, err := s.listings.DeleteByUser(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete user listings", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", id), slog.Int64("listings_removed", removed))
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventUserDelete, id, "", map[string]string{
		"listings_removed": fmt.Sprint(removed),
	})

	return nil
}

// GetUserListings lists the caller's own listings
func (s *UserService) GetUserListings(ctx context.Context, actorID, id string) ([]*models.Listing, error) {
	if actorID != id {
		return nil, models.ErrUnauthorized
	}

	listings, err := s.listings.ListByUser(ctx, id)
	if err != nil {
		s.logger.Error("failed to list user listings", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return listings, nil
}

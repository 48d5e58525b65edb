package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/tradepost/internal/models"
	pkglogger "github.com/BradenHooton/tradepost/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc         func(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)
	DeleteFunc         func(ctx context.Context, id string) error
	UsernameExistsFunc func(ctx context.Context, username string) (bool, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, update)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	if m.UsernameExistsFunc != nil {
		return m.UsernameExistsFunc(ctx, username)
	}
	return false, nil
}

// MockTokenRevocationRepository implements TokenRevocationRepository and SessionRevoker for testing
type MockTokenRevocationRepository struct {
	RevokeTokenFunc        func(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error
	RevokeUserSessionsFunc func(ctx context.Context, userID string, until time.Time, reason string) error
}

func (m *MockTokenRevocationRepository) RevokeUserSessions(ctx context.Context, userID string, until time.Time, reason string) error {
	if m.RevokeUserSessionsFunc != nil {
		return m.RevokeUserSessionsFunc(ctx, userID, until, reason)
	}
	return nil
}

func (m *MockTokenRevocationRepository) RevokeToken(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, jti, userID, expiresAt, reason)
	}
	return nil
}

// MockListingRepository implements ListingRepository for testing
type MockListingRepository struct {
	CreateFunc       func(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetByIDFunc      func(ctx context.Context, id string) (*models.Listing, error)
	UpdateFunc       func(ctx context.Context, id string, listing *models.Listing) (*models.Listing, error)
	DeleteFunc       func(ctx context.Context, id string) error
	ListByUserFunc   func(ctx context.Context, userID string) ([]*models.Listing, error)
	ListFunc         func(ctx context.Context, limit, offset int) ([]*models.Listing, error)
	DeleteByUserFunc func(ctx context.Context, userID string) (int64, error)
}

func (m *MockListingRepository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, listing)
	}
	return nil, models.ErrInternalServer
}

func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockListingRepository) Update(ctx context.Context, id string, listing *models.Listing) (*models.Listing, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, listing)
	}
	return nil, models.ErrInternalServer
}

func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockListingRepository) ListByUser(ctx context.Context, userID string) ([]*models.Listing, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Listing{}, nil
}

func (m *MockListingRepository) List(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Listing{}, nil
}

func (m *MockListingRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if m.DeleteByUserFunc != nil {
		return m.DeleteByUserFunc(ctx, userID)
	}
	return 0, nil
}

// MockGoogleVerifier implements GoogleVerifier for testing
type MockGoogleVerifier struct {
	Disabled   bool
	VerifyFunc func(ctx context.Context, rawToken string) (*models.GoogleIdentity, error)
}

func (m *MockGoogleVerifier) Enabled() bool {
	return !m.Disabled
}

func (m *MockGoogleVerifier) Verify(ctx context.Context, rawToken string) (*models.GoogleIdentity, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, rawToken)
	}
	return nil, models.ErrUnauthorized
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

// NewTestUser creates a test user
func NewTestUser(id, username, email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Avatar:    models.DefaultAvatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/tradepost/internal/auth"
	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/BradenHooton/tradepost/internal/services"
	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds session claims to the request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Type:   models.TokenTypeSession,
	}
	claims.ID = "jti-" + userID
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc       func(ctx context.Context, username, email, password string) (*models.User, error)
	SignInFunc       func(ctx context.Context, email, password, ipAddress string) (*services.Session, error)
	GoogleSignInFunc func(ctx context.Context, idToken, name, photo, ipAddress string) (*services.Session, error)
	SignOutFunc      func(ctx context.Context, claims *models.TokenClaims) error
}

func (m *MockAuthService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	if m.SignupFunc == nil {
		return nil, models.ErrConflict
	}
	return m.SignupFunc(ctx, username, email, password)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password, ipAddress string) (*services.Session, error) {
	if m.SignInFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.SignInFunc(ctx, email, password, ipAddress)
}

func (m *MockAuthService) GoogleSignIn(ctx context.Context, idToken, name, photo, ipAddress string) (*services.Session, error) {
	if m.GoogleSignInFunc == nil {
		return nil, models.ErrNotConfigured
	}
	return m.GoogleSignInFunc(ctx, idToken, name, photo, ipAddress)
}

func (m *MockAuthService) SignOut(ctx context.Context, claims *models.TokenClaims) error {
	if m.SignOutFunc == nil {
		return nil
	}
	return m.SignOutFunc(ctx, claims)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserFunc         func(ctx context.Context, id string) (*models.User, error)
	UpdateUserFunc      func(ctx context.Context, actorID, id string, req services.ProfileUpdate) (*models.User, error)
	DeleteUserFunc      func(ctx context.Context, actorID, id string) error
	GetUserListingsFunc func(ctx context.Context, actorID, id string) ([]*models.Listing, error)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) UpdateUser(ctx context.Context, actorID, id string, req services.ProfileUpdate) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, actorID, id, req)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, actorID, id)
}

func (m *MockUserService) GetUserListings(ctx context.Context, actorID, id string) ([]*models.Listing, error) {
	if m.GetUserListingsFunc == nil {
		return []*models.Listing{}, nil
	}
	return m.GetUserListingsFunc(ctx, actorID, id)
}

// MockListingService implements ListingService for testing
type MockListingService struct {
	CreateListingFunc func(ctx context.Context, actorID string, listing *models.Listing) (*models.Listing, error)
	GetListingFunc    func(ctx context.Context, id string) (*models.Listing, error)
	UpdateListingFunc func(ctx context.Context, actorID, id string, changes *models.Listing) (*models.Listing, error)
	DeleteListingFunc func(ctx context.Context, actorID, id string) error
	ListListingsFunc  func(ctx context.Context, limit, offset int) ([]*models.Listing, error)
}

func (m *MockListingService) CreateListing(ctx context.Context, actorID string, listing *models.Listing) (*models.Listing, error) {
	if m.CreateListingFunc == nil {
		return listing, nil
	}
	return m.CreateListingFunc(ctx, actorID, listing)
}

func (m *MockListingService) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	if m.GetListingFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetListingFunc(ctx, id)
}

func (m *MockListingService) UpdateListing(ctx context.Context, actorID, id string, changes *models.Listing) (*models.Listing, error) {
	if m.UpdateListingFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateListingFunc(ctx, actorID, id, changes)
}

func (m *MockListingService) DeleteListing(ctx context.Context, actorID, id string) error {
	if m.DeleteListingFunc == nil {
		return nil
	}
	return m.DeleteListingFunc(ctx, actorID, id)
}

func (m *MockListingService) ListListings(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	if m.ListListingsFunc == nil {
		return []*models.Listing{}, nil
	}
	return m.ListListingsFunc(ctx, limit, offset)
}

// WithChiRouteContext adds chi URL parameters to request context for testing.
//
// Example usage:
//
//	req := httptest.NewRequest("POST", "/api/user/update/user123", body)
//	req = WithChiRouteContext(req, map[string]string{
//	    "id": "user123",
//	})
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

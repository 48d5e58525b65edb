package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/tradepost/internal/auth"
	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/BradenHooton/tradepost/internal/services"
	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, username, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password, ipAddress string) (*services.Session, error)
	GoogleSignIn(ctx context.Context, idToken, name, photo, ipAddress string) (*services.Session, error)
	SignOut(ctx context.Context, claims *models.TokenClaims) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	ipConfig     *pkghttp.IPConfig
	cookieConfig auth.CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, cookieConfig auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		ipConfig:     ipConfig,
		cookieConfig: cookieConfig,
	}
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignInRequest represents the request body for email/password sign in
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleRequest carries the ID token issued to the client by Google
type GoogleRequest struct {
	IDToken string `json:"id_token" validate:"required"`
	Name    string `json:"name" validate:"max=128"`
	Photo   string `json:"photo" validate:"omitempty,url"`
}

// Signup handles account creation
// @Summary Create an account
// @Accept json
// @Param request body SignupRequest true "Signup request"
// @Produce json
// @Success 201 {string} string
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, err)
		return
	}

	_, err := h.service.Signup(r.Context(), strings.TrimSpace(req.Username), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidPassword):
			pkghttp.WriteBadRequest(w, "Invalid password")
		case errors.Is(err, models.ErrInvalidEmail):
			pkghttp.WriteBadRequest(w, "Invalid email format")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Username or email already in use")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusCreated, "User created successfully!")
}

// SignIn handles email/password login, subject to the login throttle
// @Summary Sign in
// @Accept json
// @Param request body SignInRequest true "Sign in request"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, err)
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		h.writeSignInError(w, err)
		return
	}

	auth.SetSessionCookie(w, session.Token, session.ExpiresAt, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(session.User))
}

// Google handles sign in with a Google ID token, creating the account on first use
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, err)
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	session, err := h.service.GoogleSignIn(r.Context(), req.IDToken, req.Name, req.Photo, ipAddress)
	if err != nil {
		if errors.Is(err, models.ErrNotConfigured) {
			pkghttp.WriteServiceUnavailable(w, "Google sign-in is not configured")
			return
		}
		h.writeSignInError(w, err)
		return
	}

	auth.SetSessionCookie(w, session.Token, session.ExpiresAt, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(session.User))
}

// SignOut clears the cookie and revokes the current session when there is a valid one.
// A stale or revoked cookie is still cleared.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookieConfig)

	if claims := auth.GetUserFromContext(r); claims != nil {
		if err := h.service.SignOut(r.Context(), claims); err != nil {
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
	}

	pkghttp.WriteMessage(w, http.StatusOK, "User has been logged out!")
}

func (h *AuthHandler) writeSignInError(w http.ResponseWriter, err error) {
	var banErr *models.BanError
	switch {
	case errors.As(err, &banErr):
		pkghttp.WriteBanned(w, banErr.RetryAfter, banErr.Error())
	case errors.Is(err, models.ErrUnauthorized):
		// Same message for unknown email and wrong password
		pkghttp.WriteUnauthorized(w, "Invalid email or password")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

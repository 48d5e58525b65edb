package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/tradepost/internal/auth"
	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/BradenHooton/tradepost/internal/services"
	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, actorID, id string, req services.ProfileUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error
	GetUserListings(ctx context.Context, actorID, id string) ([]*models.Listing, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service      UserService
	cookieConfig auth.CookieConfig
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, cookieConfig auth.CookieConfig) *UserHandler {
	return &UserHandler{
		service:      service,
		cookieConfig: cookieConfig,
	}
}

// UpdateUserRequest represents the request body for a profile update.
// Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ContactResponse is the public view of a listing owner
type ContactResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// userModelToResponse converts a user model to a response DTO
func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// actorID returns the authenticated caller, writing a 401 when there is none
func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := auth.GetUserFromContext(r)
	if claims == nil || claims.UserID == "" {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return "", false
	}
	return claims.UserID, true
}

// GetUser returns the public contact details of a user
// @Summary Get listing owner contact
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} ContactResponse
// @Failure 404 {object} ErrorResponse
// @Router /user/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found!")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ContactResponse{
		Username: user.Username,
		Email:    user.Email,
		Avatar:   user.Avatar,
	})
}

// UpdateUser updates the caller's own profile
// @Summary Update own profile
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse
// @Router /user/update/{id} [post]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), actor, id, services.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "You can only update your own account!")
		case errors.Is(err, models.ErrInvalidPassword):
			pkghttp.WriteBadRequest(w, "Invalid password")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Username or email already in use")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found!")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// DeleteUser deletes the caller's own account along with its listings
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "You can only delete your own account!")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found!")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.ClearSessionCookie(w, h.cookieConfig)
	pkghttp.WriteMessage(w, http.StatusOK, "User has been deleted!")
}

// GetUserListings lists the caller's own listings
func (h *UserHandler) GetUserListings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	listings, err := h.service.GetUserListings(r.Context(), actor, id)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "You can only view your own listings!")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if listings == nil {
		listings = []*models.Listing{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, listings)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/BradenHooton/tradepost/internal/models"
	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ListingService defines the interface for listing business logic
type ListingService interface {
	CreateListing(ctx context.Context, actorID string, listing *models.Listing) (*models.Listing, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	UpdateListing(ctx context.Context, actorID, id string, changes *models.Listing) (*models.Listing, error)
	DeleteListing(ctx context.Context, actorID, id string) error
	ListListings(ctx context.Context, limit, offset int) ([]*models.Listing, error)
}

// ListingHandler handles listing HTTP requests
type ListingHandler struct {
	service ListingService
}

func NewListingHandler(service ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// ListingRequest is the body accepted by create and update.
// userRef is ignored; the owner is always the caller.
type ListingRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"required,max=5000"`
	Address       string   `json:"address" validate:"required,max=500"`
	Type          string   `json:"type" validate:"required,oneof=rent sale"`
	Quantity      int      `json:"quantity" validate:"gte=0"`
	Stock         int      `json:"stock" validate:"gte=0"`
	RegularPrice  float64  `json:"regularPrice" validate:"gt=0"`
	DiscountPrice float64  `json:"discountPrice" validate:"gte=0"`
	Offer         bool     `json:"offer"`
	Furniture     bool     `json:"furniture"`
	BrandNew      bool     `json:"brandnew"`
	ImageURLs     []string `json:"imageUrls" validate:"max=6,dive,required"`
}

func (req *ListingRequest) toModel() *models.Listing {
	images := req.ImageURLs
	if images == nil {
		images = []string{}
	}
	return &models.Listing{
		Name:          req.Name,
		Description:   req.Description,
		Address:       req.Address,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Stock:         req.Stock,
		RegularPrice:  req.RegularPrice,
		DiscountPrice: req.DiscountPrice,
		Offer:         req.Offer,
		Furniture:     req.Furniture,
		BrandNew:      req.BrandNew,
		ImageURLs:     images,
	}
}

func decodeListing(w http.ResponseWriter, r *http.Request) (*models.Listing, bool) {
	var req ListingRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return nil, false
	}
	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, err)
		return nil, false
	}
	return req.toModel(), true
}

// writeListingError maps listing service errors to responses
func writeListingError(w http.ResponseWriter, err error, ownershipMessage string) {
	var fieldErr *models.FieldError
	switch {
	case errors.As(err, &fieldErr):
		pkghttp.WriteBadRequest(w, fieldErr.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Listing not found!")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, ownershipMessage)
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// CreateListing handles POST /listing/create
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	listing, ok := decodeListing(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateListing(r.Context(), actor, listing)
	if err != nil {
		writeListingError(w, err, "Unauthorized")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, created)
}

// DeleteListing handles DELETE /listing/delete/{id}
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteListing(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeListingError(w, err, "You can only delete your own listings!")
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Listing has been deleted!")
}

// UpdateListing handles POST /listing/update/{id}
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	changes, ok := decodeListing(w, r)
	if !ok {
		return
	}

	updated, err := h.service.UpdateListing(r.Context(), actor, chi.URLParam(r, "id"), changes)
	if err != nil {
		writeListingError(w, err, "You can only update your own listings!")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, updated)
}

// GetListing handles GET /listing/get/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeListingError(w, err, "")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, listing)
}

// ListListings handles GET /listing/get?limit=&startIndex=
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		pkghttp.WriteBadRequest(w, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "startIndex")
	if err != nil {
		pkghttp.WriteBadRequest(w, "startIndex must be an integer")
		return
	}

	listings, err := h.service.ListListings(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if listings == nil {
		listings = []*models.Listing{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, listings)
}

// queryInt parses an optional integer query parameter; absent means 0
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

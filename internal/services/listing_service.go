package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/tradepost/internal/models"
)

// ListingRepository defines the interface for listing data access
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	Update(ctx context.Context, id string, listing *models.Listing) (*models.Listing, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Listing, error)
	List(ctx context.Context, limit, offset int) ([]*models.Listing, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

const (
	DefaultListingLimit = 9
	MaxListingLimit     = 100
)

// ListingService handles listing business logic
type ListingService struct {
	repo   ListingRepository
	logger *slog.Logger
}

func NewListingService(repo ListingRepository, logger *slog.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		logger: logger,
	}
}

// validateListing enforces the rules struct tags cannot express
func validateListing(l *models.Listing) error {
	if l.Type != models.ListingTypeRent && l.Type != models.ListingTypeSale {
		return &models.FieldError{Field: "type", Message: "must be rent or sale"}
	}
	if len(l.ImageURLs) > models.MaxListingImages {
		return &models.FieldError{Field: "imageUrls", Message: fmt.Sprintf("at most %d images are allowed", models.MaxListingImages)}
	}
	if l.Offer && l.DiscountPrice >= l.RegularPrice {
		return &models.FieldError{Field: "discountPrice", Message: "must be lower than regularPrice"}
	}
	return nil
}

// CreateListing stores a listing owned by actorID, whatever userRef the caller sent
func (s *ListingService) CreateListing(ctx context.Context, actorID string, listing *models.Listing) (*models.Listing, error) {
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	listing.UserRef = actorID

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		s.logger.Error("failed to create listing", slog.String("user_id", actorID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("listing created", slog.String("listing_id", created.ID), slog.String("user_id", actorID))
	return created, nil
}

func (s *ListingService) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get listing", slog.String("listing_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return listing, nil
}

// ownedListing loads a listing and checks that actorID owns it
func (s *ListingService) ownedListing(ctx context.Context, actorID, id string) (*models.Listing, error) {
	listing, err := s.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.UserRef != actorID {
		s.logger.Warn("listing access denied", slog.String("listing_id", id), slog.String("actor_id", actorID))
		return nil, models.ErrUnauthorized
	}
	return listing, nil
}

func (s *ListingService) UpdateListing(ctx context.Context, actorID, id string, changes *models.Listing) (*models.Listing, error) {
	if _, err := s.ownedListing(ctx, actorID, id); err != nil {
		return nil, err
	}
	if err := validateListing(changes); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update listing", slog.String("listing_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

func (s *ListingService) DeleteListing(ctx context.Context, actorID, id string) error {
	if _, err := s.ownedListing(ctx, actorID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete listing", slog.String("listing_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("listing deleted", slog.String("listing_id", id), slog.String("user_id", actorID))
	return nil
}

// ListListings returns a page of listings, newest first. Out of range
// values fall back to the defaults.
func (s *ListingService) ListListings(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	if limit <= 0 {
		limit = DefaultListingLimit
	}
	if limit > MaxListingLimit {
		limit = MaxListingLimit
	}
	if offset < 0 {
		offset = 0
	}

	listings, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list listings", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return listings, nil
}

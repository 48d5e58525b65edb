package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/tradepost/internal/database"
	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListingRepository is implemented by every listing storage backend
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	Update(ctx context.Context, id string, listing *models.Listing) (*models.Listing, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Listing, error)
	List(ctx context.Context, limit, offset int) ([]*models.Listing, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

const listingColumns = `id, name, description, address, type, quantity, stock,
	regular_price, discount_price, offer, furniture, brand_new, image_urls,
	user_ref, created_at, updated_at`

type PostgresListingRepository struct {
	pool *pgxpool.Pool
}

var _ ListingRepository = (*PostgresListingRepository)(nil)

func NewPostgresListingRepository(db *database.DB) *PostgresListingRepository {
	return &PostgresListingRepository{pool: db.Pool}
}

func scanListingRow(scanner rowScanner) (*models.Listing, error) {
	var l models.Listing

	err := scanner.Scan(
		&l.ID, &l.Name, &l.Description, &l.Address, &l.Type, &l.Quantity, &l.Stock,
		&l.RegularPrice, &l.DiscountPrice, &l.Offer, &l.Furniture, &l.BrandNew, &l.ImageURLs,
		&l.UserRef, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}

	return &l, nil
}

func scanListingRows(rows pgx.Rows) ([]*models.Listing, error) {
	defer rows.Close()

	listings := make([]*models.Listing, 0)
	for rows.Next() {
		l, err := scanListingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return listings, nil
}

func (r *PostgresListingRepository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	listing.ID = uuid.New().String()

	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	if listing.ImageURLs == nil {
		listing.ImageURLs = []string{}
	}

	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + listingColumns

	return scanListingRow(r.pool.QueryRow(ctx, query,
		listing.ID, listing.Name, listing.Description, listing.Address, listing.Type,
		listing.Quantity, listing.Stock, listing.RegularPrice, listing.DiscountPrice,
		listing.Offer, listing.Furniture, listing.BrandNew, listing.ImageURLs,
		listing.UserRef, listing.CreatedAt, listing.UpdatedAt,
	))
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return scanListingRow(r.pool.QueryRow(ctx, query, id))
}

// Update replaces the editable fields. The owner and creation time never change.
func (r *PostgresListingRepository) Update(ctx context.Context, id string, listing *models.Listing) (*models.Listing, error) {
	if listing.ImageURLs == nil {
		listing.ImageURLs = []string{}
	}

	query := `
		UPDATE listings SET
			name = $2, description = $3, address = $4, type = $5, quantity = $6, stock = $7,
			regular_price = $8, discount_price = $9, offer = $10, furniture = $11,
			brand_new = $12, image_urls = $13, updated_at = $14
		WHERE id = $1
		RETURNING ` + listingColumns

	return scanListingRow(r.pool.QueryRow(ctx, query,
		id, listing.Name, listing.Description, listing.Address, listing.Type,
		listing.Quantity, listing.Stock, listing.RegularPrice, listing.DiscountPrice,
		listing.Offer, listing.Furniture, listing.BrandNew, listing.ImageURLs, time.Now(),
	))
}

func (r *PostgresListingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresListingRepository) ListByUser(ctx context.Context, userID string) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE user_ref = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", database.MapPostgresError(err))
	}

	return scanListingRows(rows)
}

// List returns one page of listings, newest first
func (r *PostgresListingRepository) List(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	return scanListingRows(rows)
}

func (r *PostgresListingRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE user_ref = $1`, userID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

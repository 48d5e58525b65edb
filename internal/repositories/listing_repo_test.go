package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testListingRepository runs the behaviour every backend must share
func testListingRepository(t *testing.T, repo ListingRepository, owner, other string) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		created, err := repo.Create(ctx, sampleListing(owner, "Flat"))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flat", got.Name)
		assert.Equal(t, owner, got.UserRef)
		assert.Equal(t, 1200.0, got.RegularPrice)
		assert.Equal(t, []string{"https://img.example.com/1.jpg"}, got.ImageURLs)
	})

	t.Run("missing listing is not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, uuid.New().String()), models.ErrNotFound)

		_, err = repo.Update(ctx, uuid.New().String(), sampleListing(owner, "x"))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("update keeps owner", func(t *testing.T) {
		created, err := repo.Create(ctx, sampleListing(owner, "Before"))
		require.NoError(t, err)

		changes := sampleListing(other, "After")
		changes.Type = models.ListingTypeSale
		changes.ImageURLs = nil

		updated, err := repo.Update(ctx, created.ID, changes)
		require.NoError(t, err)
		assert.Equal(t, "After", updated.Name)
		assert.Equal(t, models.ListingTypeSale, updated.Type)
		assert.Equal(t, owner, updated.UserRef)
		assert.Empty(t, updated.ImageURLs)
	})

	t.Run("list pages newest first", func(t *testing.T) {
		_, err := repo.DeleteByUser(ctx, owner)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := repo.Create(ctx, sampleListing(owner, fmt.Sprintf("listing-%d", i)))
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
		}

		page, err := repo.List(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "listing-4", page[0].Name)
		assert.Equal(t, "listing-3", page[1].Name)

		page, err = repo.List(ctx, 2, 4)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "listing-0", page[0].Name)
	})

	t.Run("list by user and delete by user", func(t *testing.T) {
		_, err := repo.Create(ctx, sampleListing(other, "Other's flat"))
		require.NoError(t, err)

		owned, err := repo.ListByUser(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, owned, 5)

		removed, err := repo.DeleteByUser(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(5), removed)

		owned, err = repo.ListByUser(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, owned)

		remaining, err := repo.ListByUser(ctx, other)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})

	t.Run("delete", func(t *testing.T) {
		created, err := repo.Create(ctx, sampleListing(owner, "Gone"))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPostgresListingRepository(t *testing.T) {
	db := setupPostgres(t)
	users := NewUserRepository(db)
	owner := seedUser(t, users, "owner")
	other := seedUser(t, users, "other")

	testListingRepository(t, NewPostgresListingRepository(db), owner.ID, other.ID)
}

func TestMongoListingRepository(t *testing.T) {
	m := setupMongo(t)
	repo := NewMongoListingRepository(m)
	require.NoError(t, repo.EnsureIndexes(context.Background()))

	testListingRepository(t, repo, uuid.New().String(), uuid.New().String())
}

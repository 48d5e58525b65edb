package repositories

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/tradepost/internal/database"
	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func skipIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// setupPostgres starts a migrated PostgreSQL container for the test
func setupPostgres(t *testing.T) *database.DB {
	t.Helper()
	skipIntegration(t)

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("tradepost"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))
	require.NoError(t, database.Migrate(ctx, pool, discardLogger()))

	return &database.DB{Pool: pool}
}

// setupMongo starts a MongoDB container for the test
func setupMongo(t *testing.T) *database.Mongo {
	t.Helper()
	skipIntegration(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "mongodb")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	require.NoError(t, client.Ping(ctx, nil))

	return &database.Mongo{Client: client, Database: client.Database("tradepost_test")}
}

func seedUser(t *testing.T, repo *UserRepository, username string) *models.User {
	t.Helper()

	user, err := repo.Create(context.Background(), &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$12$placeholderplaceholderplaceholderplaceholderplace",
	})
	require.NoError(t, err)
	return user
}

func sampleListing(userRef, name string) *models.Listing {
	return &models.Listing{
		Name:          name,
		Description:   "Two bedroom flat close to the station",
		Address:       "1 Main Street",
		Type:          models.ListingTypeRent,
		Quantity:      1,
		Stock:         1,
		RegularPrice:  1200,
		DiscountPrice: 1000,
		Offer:         true,
		ImageURLs:     []string{"https://img.example.com/1.jpg"},
		UserRef:       userRef,
	}
}

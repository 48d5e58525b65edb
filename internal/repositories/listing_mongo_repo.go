package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/tradepost/internal/database"
	"github.com/BradenHooton/tradepost/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listingCollection = "listings"

// MongoListingRepository stores listings as documents keyed by a UUID string _id
type MongoListingRepository struct {
	col *mongo.Collection
}

var _ ListingRepository = (*MongoListingRepository)(nil)

func NewMongoListingRepository(m *database.Mongo) *MongoListingRepository {
	return &MongoListingRepository{col: m.Database.Collection(listingCollection)}
}

// EnsureIndexes creates the indexes the listing queries rely on
func (r *MongoListingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userRef", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}
	return nil
}

func mapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict
	}
	return err
}

// mongo stores milliseconds; truncate so returned values match what a later read sees
func mongoTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func (r *MongoListingRepository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	listing.ID = uuid.New().String()

	now := mongoTime(time.Now())
	listing.CreatedAt = now
	listing.UpdatedAt = now
	if listing.ImageURLs == nil {
		listing.ImageURLs = []string{}
	}

	if _, err := r.col.InsertOne(ctx, listing); err != nil {
		return nil, mapMongoError(err)
	}

	return listing, nil
}

func (r *MongoListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&listing); err != nil {
		return nil, mapMongoError(err)
	}
	return &listing, nil
}

func (r *MongoListingRepository) Update(ctx context.Context, id string, listing *models.Listing) (*models.Listing, error) {
	if listing.ImageURLs == nil {
		listing.ImageURLs = []string{}
	}

	update := bson.M{"$set": bson.M{
		"name":          listing.Name,
		"description":   listing.Description,
		"address":       listing.Address,
		"type":          listing.Type,
		"quantity":      listing.Quantity,
		"stock":         listing.Stock,
		"regularPrice":  listing.RegularPrice,
		"discountPrice": listing.DiscountPrice,
		"offer":         listing.Offer,
		"furniture":     listing.Furniture,
		"brandnew":      listing.BrandNew,
		"imageUrls":     listing.ImageURLs,
		"updatedAt":     mongoTime(time.Now()),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Listing
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return nil, mapMongoError(err)
	}
	return &updated, nil
}

func (r *MongoListingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MongoListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Listing, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := make([]*models.Listing, 0)
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

func (r *MongoListingRepository) ListByUser(ctx context.Context, userID string) ([]*models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"userRef": userID}, opts)
}

// List returns one page of listings, newest first
func (r *MongoListingRepository) List(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoListingRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.col.DeleteMany(ctx, bson.M{"userRef": userID})
	if err != nil {
		return 0, mapMongoError(err)
	}
	return result.DeletedCount, nil
}

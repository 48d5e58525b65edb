package models

import "time"

const (
	ListingTypeRent = "rent"
	ListingTypeSale = "sale"

	MaxListingImages = 6
)

type Listing struct {
	ID            string    `json:"_id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Description   string    `json:"description" bson:"description"`
	Address       string    `json:"address" bson:"address"`
	Type          string    `json:"type" bson:"type"`
	Quantity      int       `json:"quantity" bson:"quantity"`
	Stock         int       `json:"stock" bson:"stock"`
	RegularPrice  float64   `json:"regularPrice" bson:"regularPrice"`
	DiscountPrice float64   `json:"discountPrice" bson:"discountPrice"`
	Offer         bool      `json:"offer" bson:"offer"`
	Furniture     bool      `json:"furniture" bson:"furniture"`
	BrandNew      bool      `json:"brandnew" bson:"brandnew"`
	ImageURLs     []string  `json:"imageUrls" bson:"imageUrls"`
	UserRef       string    `json:"userRef" bson:"userRef"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "kavholm/internal/domain/listings"
	"kavholm/internal/domain/shared/money"
	"kavholm/internal/infra/storage"
)

// ListingCatalog reads the listing documents the catalog service maintains.
type ListingCatalog struct {
	col *mongo.Collection
}

func NewListingCatalog(db *mongo.Database) *ListingCatalog {
	return &ListingCatalog{col: db.Collection("listings")}
}

func (c *ListingCatalog) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := c.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return doc.toListing(), nil
}

// Save seeds fixture listings; production writes go through the catalog service.
func (c *ListingCatalog) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := listingDocument{
		ID:          string(listing.ID),
		Host:        listing.Host,
		Title:       listing.Title,
		City:        listing.City,
		Country:     listing.Country,
		NightlyRate: listing.NightlyRate.Amount,
		Currency:    listing.NightlyRate.Currency,
		CreatedAt:   listing.CreatedAt.UnixMilli(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := c.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

type listingDocument struct {
	ID          string `bson:"_id"`
	Host        string `bson:"host"`
	Title       string `bson:"title"`
	City        string `bson:"city"`
	Country     string `bson:"country"`
	NightlyRate int64  `bson:"nightly_rate"`
	Currency    string `bson:"currency"`
	CreatedAt   int64  `bson:"created_at"`
}

func (d listingDocument) toListing() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Host:        d.Host,
		Title:       d.Title,
		City:        d.City,
		Country:     d.Country,
		NightlyRate: money.Money{Amount: d.NightlyRate, Currency: d.Currency},
		CreatedAt:   timestampToTime(d.CreatedAt),
	}
}

var _ domainlistings.Catalog = (*ListingCatalog)(nil)

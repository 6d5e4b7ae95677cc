package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "kavholm/internal/domain/booking"
	domainlistings "kavholm/internal/domain/listings"
	domainrange "kavholm/internal/domain/shared/daterange"
	"kavholm/internal/domain/shared/money"
	"kavholm/internal/infra/storage"
)

const nightKeyLayout = "2006-01-02"

// BookingRepository persists bookings in two collections: the booking documents
// themselves and one lock document per occupied night, keyed
// "<listingID>#<date>" with a unique _id. The lock inserts are what make the
// availability check a database-level constraint: of two transactions claiming
// an overlapping range, the second hits a duplicate key and aborts, so it can
// never leave a double-booked record behind.
type BookingRepository struct {
	bookings *mongo.Collection
	nights   *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		bookings: db.Collection("bookings"),
		nights:   db.Collection("booking_nights"),
	}
}

// EnsureIndexes creates the query indexes the list operations rely on.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "host_username", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (r *BookingRepository) CreateIfAvailable(ctx context.Context, b *domainbooking.Booking) error {
	if mongo.SessionFromContext(ctx) != nil {
		return r.createLocked(ctx, b)
	}
	session, err := r.bookings.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, r.createLocked(sc, b)
	})
	return err
}

func (r *BookingRepository) createLocked(ctx context.Context, b *domainbooking.Booking) error {
	locks := make([]any, 0, b.Range.Nights())
	for _, day := range b.Range.Days() {
		locks = append(locks, nightDocument{
			ID:        nightKey(b.ListingID, day),
			ListingID: string(b.ListingID),
			BookingID: string(b.ID),
		})
	}
	if _, err := r.nights.InsertMany(ctx, locks, options.InsertMany().SetOrdered(true)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDateConflict
		}
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	if _, err := r.bookings.InsertOne(ctx, newBookingDocument(b)); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, username string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"username": username})
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostUsername string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"host_username": hostUsername})
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.bookings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	result := make([]*domainbooking.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
		}
		result = append(result, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return result, nil
}

type bookingDocument struct {
	ID            string `bson:"_id"`
	ListingID     string `bson:"listing_id"`
	Username      string `bson:"username"`
	HostUsername  string `bson:"host_username"`
	CheckIn       int64  `bson:"check_in"`
	CheckOut      int64  `bson:"check_out"`
	Guests        int    `bson:"guests"`
	PaymentMethod string `bson:"payment_method"`
	TotalAmount   int64  `bson:"total_amount"`
	Currency      string `bson:"currency"`
	CreatedAt     int64  `bson:"created_at"`
}

type nightDocument struct {
	ID        string `bson:"_id"`
	ListingID string `bson:"listing_id"`
	BookingID string `bson:"booking_id"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		Username:      b.Username,
		HostUsername:  b.HostUsername,
		CheckIn:       b.Range.CheckIn.UnixMilli(),
		CheckOut:      b.Range.CheckOut.UnixMilli(),
		Guests:        b.Guests,
		PaymentMethod: b.PaymentMethod,
		TotalAmount:   b.TotalCost.Amount,
		Currency:      b.TotalCost.Currency,
		CreatedAt:     b.CreatedAt.UnixMilli(),
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		ListingID:     domainlistings.ListingID(d.ListingID),
		Username:      d.Username,
		HostUsername:  d.HostUsername,
		Range:         domainrange.DateRange{CheckIn: timestampToTime(d.CheckIn), CheckOut: timestampToTime(d.CheckOut)},
		Guests:        d.Guests,
		PaymentMethod: d.PaymentMethod,
		TotalCost:     money.Money{Amount: d.TotalAmount, Currency: d.Currency},
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
}

func nightKey(listingID domainlistings.ListingID, day time.Time) string {
	return string(listingID) + "#" + day.Format(nightKeyLayout)
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)

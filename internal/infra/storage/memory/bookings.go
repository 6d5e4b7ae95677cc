package memory

import (
	"context"
	"sync"

	domainbooking "kavholm/internal/domain/booking"
	domainlistings "kavholm/internal/domain/listings"
)

// BookingRepository is an in-memory booking store. One write lock serializes
// the overlap check and the append, which is what makes CreateIfAvailable
// atomic: concurrent overlapping requests line up here and all but the first
// observe the winner's record.
type BookingRepository struct {
	mu        sync.RWMutex
	items     []*domainbooking.Booking
	byListing map[domainlistings.ListingID][]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		byListing: make(map[domainlistings.ListingID][]*domainbooking.Booking),
	}
}

func (r *BookingRepository) CreateIfAvailable(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byListing[b.ListingID] {
		if existing.Range.Overlaps(b.Range) {
			return domainbooking.ErrDateConflict
		}
	}
	r.items = append(r.items, b)
	r.byListing[b.ListingID] = append(r.byListing[b.ListingID], b)
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, username string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.Username == username {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostUsername string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.HostUsername == hostUsername {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*domainbooking.Booking(nil), r.byListing[listingID]...), nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)

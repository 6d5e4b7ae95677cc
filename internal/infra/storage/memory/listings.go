package memory

import (
	"context"
	"sync"

	domainlistings "kavholm/internal/domain/listings"
)

// ListingCatalog is an in-memory stand-in for the listing service.
type ListingCatalog struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingCatalog() *ListingCatalog {
	return &ListingCatalog{items: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

func (c *ListingCatalog) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	listing, ok := c.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing, nil
}

// Save seeds the catalog; the booking engine itself never writes listings.
func (c *ListingCatalog) Save(ctx context.Context, listing *domainlistings.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[listing.ID] = listing
	return nil
}

var _ domainlistings.Catalog = (*ListingCatalog)(nil)

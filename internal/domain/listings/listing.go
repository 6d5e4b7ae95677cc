package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"kavholm/internal/domain/shared/money"
)

var (
	ErrNotFound      = errors.New("listings: not found")
	ErrIDRequired    = errors.New("listings: id is required")
	ErrHostRequired  = errors.New("listings: host username is required")
	ErrTitleRequired = errors.New("listings: title is required")
	ErrNightlyRate   = errors.New("listings: nightly rate must be positive")
)

type ListingID string

// Listing is the slice of the catalog the booking engine reads: identity,
// nightly price and the owning host. The catalog service owns the rest.
type Listing struct {
	ID          ListingID
	Host        string
	Title       string
	City        string
	Country     string
	NightlyRate money.Money
	CreatedAt   time.Time
}

// Catalog resolves listings for the booking engine. It exposes no writes;
// the catalog service owns mutation.
type Catalog interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
}

type CreateListingParams struct {
	ID          ListingID
	Host        string
	Title       string
	City        string
	Country     string
	NightlyRate money.Money
	Now         time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.Host) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.NightlyRate.Amount <= 0 || params.NightlyRate.Currency == "" {
		return nil, ErrNightlyRate
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Listing{
		ID:          params.ID,
		Host:        strings.TrimSpace(params.Host),
		Title:       strings.TrimSpace(params.Title),
		City:        strings.TrimSpace(params.City),
		Country:     strings.TrimSpace(params.Country),
		NightlyRate: params.NightlyRate,
		CreatedAt:   now.UTC(),
	}, nil
}

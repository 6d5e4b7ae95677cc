package memory

import (
	"context"
	"errors"

	"kavholm/internal/app/uow"
	domainbooking "kavholm/internal/domain/booking"
	domainlistings "kavholm/internal/domain/listings"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	Listings domainlistings.Catalog
	Bookings domainbooking.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. The repositories themselves
// serialize writes, so the unit carries no isolation of its own; the
// abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Listings == nil || f.Bookings == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{listings: f.Listings, bookings: f.Bookings}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings domainlistings.Catalog
	bookings domainbooking.Repository
}

func (u *Unit) Listings() domainlistings.Catalog {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}

package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"kavholm/internal/app/dto"
	handlersupport "kavholm/internal/app/handlers/support"
	"kavholm/internal/app/queries"
	"kavholm/internal/app/uow"
	domainlistings "kavholm/internal/domain/listings"
)

const (
	listGuestBookingsKey   = "booking.list.guest"
	listHostBookingsKey    = "booking.list.host"
	listListingBookingsKey = "booking.list.listing"
)

// ListGuestBookingsQuery fetches every booking the user has made.
type ListGuestBookingsQuery struct {
	Username string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	username := strings.TrimSpace(q.Username)
	if username == "" {
		return dto.BookingCollection{}, errors.New("booking: username is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, username)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "username", username, "count", len(bookings))
	}
	return dto.MapBookingCollection(bookings), nil
}

// ListHostBookingsQuery fetches bookings made against any listing the user owns.
// HostUsername was snapshotted at booking time, so one indexed read suffices.
type ListHostBookingsQuery struct {
	Username string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	username := strings.TrimSpace(q.Username)
	if username == "" {
		return dto.BookingCollection{}, errors.New("booking: username is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByHost(execCtx, username)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "username", username, "count", len(bookings))
	}
	return dto.MapBookingCollection(bookings), nil
}

// ListListingBookingsQuery fetches all bookings for one listing; the route
// layer restricts it to the listing owner.
type ListListingBookingsQuery struct {
	ListingID string
}

func (q ListListingBookingsQuery) Key() string { return listListingBookingsKey }

type ListListingBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListListingBookingsHandler) Handle(ctx context.Context, q ListListingBookingsQuery) (dto.BookingCollection, error) {
	listingID := strings.TrimSpace(q.ListingID)
	if listingID == "" {
		return dto.BookingCollection{}, errors.New("booking: listing id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByListing(execCtx, domainlistings.ListingID(listingID))
	if err != nil {
		return dto.BookingCollection{}, err
	}

	if h.Logger != nil {
		h.Logger.Debug("listing bookings listed", "listing_id", listingID, "count", len(bookings))
	}
	return dto.MapBookingCollection(bookings), nil
}

var _ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection] = (*ListGuestBookingsHandler)(nil)
var _ queries.Handler[ListHostBookingsQuery, dto.BookingCollection] = (*ListHostBookingsHandler)(nil)
var _ queries.Handler[ListListingBookingsQuery, dto.BookingCollection] = (*ListListingBookingsHandler)(nil)

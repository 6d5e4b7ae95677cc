package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kavholm/internal/app/commands"
	"kavholm/internal/app/dto"
	"kavholm/internal/app/middleware"
	"kavholm/internal/app/outbox"
	"kavholm/internal/app/uow"
	domainbooking "kavholm/internal/domain/booking"
	domainlistings "kavholm/internal/domain/listings"
	domainpricing "kavholm/internal/domain/pricing"
	domainrange "kavholm/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CommandID       string    `validate:"required"`
	ListingID       string    `validate:"required"`
	Username        string    `validate:"required"`
	StartDate       time.Time `validate:"required"`
	EndDate         time.Time `validate:"required"`
	Guests          int       `validate:"required,min=1"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    domainpricing.Calculator
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// Handle runs the booking pipeline: validate the requested range, resolve the
// listing, refuse the listing owner, quote the price, then perform the atomic
// conflict-checked insert. A failure at any step leaves nothing persisted.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := domainrange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	total, err := h.Pricing.Quote(ctx, listing, dr)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		Listing:   listing,
		Username:  cmd.Username,
		Range:     dr,
		Guests:    cmd.Guests,
		TotalCost: total,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	// Encode before the insert so an encoder failure leaves nothing persisted.
	records, err := outbox.EncodeDomainEvents(h.encoder(), booking.PendingEvents())
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().CreateIfAvailable(ctx, booking); err != nil {
		return nil, err
	}

	booking.ClearEvents()
	if err := outbox.StageRecords(ctx, h.Outbox, records); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("booking created",
			"booking_id", booking.ID,
			"listing_id", booking.ListingID,
			"username", booking.Username,
			"host", booking.HostUsername,
			"total", booking.TotalCost.Amount,
		)
	}

	result := dto.MapBooking(booking)
	return &result, nil
}

// ReplayableErrors lists the failure sentinels an idempotent retry must see
// with identity intact, so status mapping works the same on a replayed
// outcome as on the original dispatch.
func ReplayableErrors() []error {
	return []error{
		domainrange.ErrInvalidRange,
		domainbooking.ErrInvalidGuests,
		domainbooking.ErrGuestRequired,
		domainbooking.ErrOwnListing,
		domainbooking.ErrDateConflict,
		domainpricing.ErrNoNights,
		domainpricing.ErrRateRequired,
		domainlistings.ErrNotFound,
	}
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)

package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kavholm/internal/app/commands"
	"kavholm/internal/app/dto"
	bookingapp "kavholm/internal/app/handlers/booking"
	"kavholm/internal/app/queries"
)

type BookingHandler struct {
	Commands    commands.Bus
	Queries     queries.Bus
	Permissions ListingPermissions
	Logger      *slog.Logger
}

type createBookingRequest struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Guests    int       `json:"guests"`
}

// ListMine returns the bookings the authenticated user has made as a guest.
func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](
		c.Request.Context(), h.Queries, bookingapp.ListGuestBookingsQuery{Username: user.Username})
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListHosted returns bookings other users made against the caller's listings.
func (h BookingHandler) ListHosted(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingCollection](
		c.Request.Context(), h.Queries, bookingapp.ListHostBookingsQuery{Username: user.Username})
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListForListing(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	listingID := c.Param("listingId")
	if !h.Permissions.requireOwner(c, user, listingID) {
		return
	}
	result, err := queries.Ask[bookingapp.ListListingBookingsQuery, dto.BookingCollection](
		c.Request.Context(), h.Queries, bookingapp.ListListingBookingsQuery{ListingID: listingID})
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	listingID := c.Param("listingId")
	if !h.Permissions.forbidOwner(c, user, listingID) {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       uuid.NewString(),
		ListingID:       listingID,
		Username:        user.Username,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ BookingHTTP = BookingHandler{}

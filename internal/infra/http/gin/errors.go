package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domainbooking "kavholm/internal/domain/booking"
	domainlistings "kavholm/internal/domain/listings"
	domainpricing "kavholm/internal/domain/pricing"
	domainrange "kavholm/internal/domain/shared/daterange"
	"kavholm/internal/infra/storage"
)

// statusFor translates the domain's sentinel errors into HTTP statuses.
// Anything unrecognized is treated as an internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrGuestRequired),
		errors.Is(err, domainpricing.ErrNoNights),
		errors.Is(err, domainpricing.ErrRateRequired):
		return http.StatusBadRequest
	case errors.Is(err, domainbooking.ErrOwnListing):
		return http.StatusForbidden
	case errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrDateConflict):
		return http.StatusConflict
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error, logger *slog.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

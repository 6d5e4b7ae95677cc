package ginserver

import (
	"errors"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainlistings "kavholm/internal/domain/listings"
)

// ListingPermissions gates the listing-scoped booking routes: only the host
// may read a listing's booking ledger, and the host may never book it.
// The domain enforces the second rule again inside the booking aggregate.
type ListingPermissions struct {
	Catalog domainlistings.Catalog
}

func (p ListingPermissions) requireOwner(c *gin.Context, user principal, listingID string) bool {
	host, ok := p.resolveHost(c, listingID)
	if !ok {
		return false
	}
	if !strings.EqualFold(host, user.Username) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the listing host may view its bookings"})
		return false
	}
	return true
}

func (p ListingPermissions) forbidOwner(c *gin.Context, user principal, listingID string) bool {
	host, ok := p.resolveHost(c, listingID)
	if !ok {
		return false
	}
	if strings.EqualFold(host, user.Username) {
		c.JSON(http.StatusForbidden, gin.H{"error": "hosts cannot book their own listing"})
		return false
	}
	return true
}

func (p ListingPermissions) resolveHost(c *gin.Context, listingID string) (string, bool) {
	if p.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing catalog unavailable"})
		return "", false
	}
	listing, err := p.Catalog.ByID(c.Request.Context(), domainlistings.ListingID(listingID))
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		} else {
			respondError(c, err, nil)
		}
		return "", false
	}
	return listing.Host, true
}

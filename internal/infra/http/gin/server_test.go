package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kavholm/internal/app/commands"
	bookingapp "kavholm/internal/app/handlers/booking"
	"kavholm/internal/app/middleware"
	appoutbox "kavholm/internal/app/outbox"
	"kavholm/internal/app/queries"
	authsvc "kavholm/internal/app/services/auth"
	domainlistings "kavholm/internal/domain/listings"
	domainpricing "kavholm/internal/domain/pricing"
	"kavholm/internal/domain/shared/money"
	"kavholm/internal/infra/config"
	"kavholm/internal/infra/obs"
	"kavholm/internal/infra/security"
	"kavholm/internal/infra/storage/memory"
	"kavholm/internal/infra/validation"
)

type testServer struct {
	handler  http.Handler
	listings *memory.ListingCatalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	listings := memory.NewListingCatalog()
	bookings := memory.NewBookingRepository()
	outboxStore := memory.NewOutbox(nil)
	factory := memory.Factory{Listings: listings, Bookings: bookings}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: factory,
		Pricing:    domainpricing.NightlyRateCalculator{},
		Outbox:     outboxStore,
		Encoder:    appoutbox.JSONEventEncoder{},
	})
	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), &bookingapp.ListGuestBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.ListListingBookingsQuery{}.Key(), &bookingapp.ListListingBookingsHandler{UoWFactory: factory})

	authService := &authsvc.Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}

	handlers := Handlers{
		Booking: BookingHandler{
			Commands: middleware.ChainCommands(
				commandBus,
				middleware.Validation(validation.New()),
				middleware.Idempotency(memory.NewIdempotencyStore(), nil, bookingapp.ReplayableErrors()...),
				middleware.OutboxFlush(outboxStore),
				middleware.Transaction(factory, nil),
			),
			Queries:     middleware.ChainQueries(queryBus),
			Permissions: ListingPermissions{Catalog: listings},
		},
		Auth:           AuthHandler{Service: authService},
		AuthMiddleware: AuthMiddleware{Service: authService}.Handle,
	}

	server := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{}, obs.HealthHandlers{}, handlers)
	return &testServer{handler: server.Handler, listings: listings}
}

func (s *testServer) seedListing(t *testing.T, id, host string, rate int64) {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          domainlistings.ListingID(id),
		Host:        host,
		Title:       "Beach house",
		City:        "Malibu",
		Country:     "USA",
		NightlyRate: money.USD(rate),
	})
	require.NoError(t, err)
	require.NoError(t, s.listings.Save(context.Background(), listing))
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	body := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse-battery",
	}
	resp := s.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func bookingBody(checkIn, checkOut string, guests int) map[string]any {
	return map[string]any{
		"startDate": checkIn + "T00:00:00Z",
		"endDate":   checkOut + "T00:00:00Z",
		"guests":    guests,
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.seedListing(t, "listing-1", "lebron", 100)
	token := srv.register(t, "jlo")
	srv.register(t, "lebron")

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", token, bookingBody("2026-06-01", "2026-06-08", 2))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var booking struct {
		ID            string `json:"id"`
		ListingID     string `json:"listingId"`
		Username      string `json:"username"`
		HostUsername  string `json:"hostUsername"`
		PaymentMethod string `json:"paymentMethod"`
		TotalCost     int64  `json:"totalCost"`
		Currency      string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &booking))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "listing-1", booking.ListingID)
	assert.Equal(t, "jlo", booking.Username)
	assert.Equal(t, "lebron", booking.HostUsername)
	assert.Equal(t, "card", booking.PaymentMethod)
	assert.Equal(t, int64(880), booking.TotalCost)
	assert.Equal(t, "USD", booking.Currency)
}

func TestCreateBookingEndpoint_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	srv.seedListing(t, "listing-1", "lebron", 100)

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", "", bookingBody("2026-06-01", "2026-06-08", 2))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateBookingEndpoint_ForbidsOwner(t *testing.T) {
	srv := newTestServer(t)
	srv.seedListing(t, "listing-1", "lebron", 100)
	token := srv.register(t, "lebron")

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", token, bookingBody("2026-06-01", "2026-06-08", 2))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCreateBookingEndpoint_UnknownListing(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "jlo")

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/missing", token, bookingBody("2026-06-01", "2026-06-08", 2))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateBookingEndpoint_Conflict(t *testing.T) {
	srv := newTestServer(t)
	srv.seedListing(t, "listing-1", "lebron", 100)
	jlo := srv.register(t, "jlo")
	serena := srv.register(t, "serena")

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", jlo, bookingBody("2026-06-01", "2026-06-08", 2))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", serena, bookingBody("2026-06-04", "2026-06-10", 1))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestCreateBookingEndpoint_ConflictRetriedWithSameKey(t *testing.T) {
	srv := newTestServer(t)
	srv.seedListing(t, "listing-1", "lebron", 100)
	jlo := srv.register(t, "jlo")
	serena := srv.register(t, "serena")

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", jlo, bookingBody("2026-06-01", "2026-06-08", 2))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	conflict := func() *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(bookingBody("2026-06-04", "2026-06-10", 1)))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/listings/listing-1", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+serena)
		req.Header.Set("Idempotency-Key", "retry-1")
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusConflict, conflict().Code)

	// The retried request replays the stored failure and must map to 409 again.
	assert.Equal(t, http.StatusConflict, conflict().Code)
}

func TestCreateBookingEndpoint_InvalidRange(t *testing.T) {
	srv := newTestServer(t)
	srv.seedListing(t, "listing-1", "lebron", 100)
	token := srv.register(t, "jlo")

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", token, bookingBody("2026-06-08", "2026-06-01", 2))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListBookingsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	srv.seedListing(t, "listing-1", "lebron", 100)
	srv.seedListing(t, "listing-2", "serena", 120)
	jlo := srv.register(t, "jlo")
	lebron := srv.register(t, "lebron")

	resp := srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-1", jlo, bookingBody("2026-06-01", "2026-06-08", 2))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	resp = srv.do(t, http.MethodPost, "/api/v1/bookings/listings/listing-2", jlo, bookingBody("2026-07-01", "2026-07-05", 2))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	type collection struct {
		Bookings []struct {
			ListingID string `json:"listingId"`
			Username  string `json:"username"`
		} `json:"bookings"`
	}

	// Guest view.
	resp = srv.do(t, http.MethodGet, "/api/v1/bookings", jlo, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var mine collection
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &mine))
	assert.Len(t, mine.Bookings, 2)

	// Host view only shows bookings against the caller's listings.
	resp = srv.do(t, http.MethodGet, "/api/v1/bookings/listings", lebron, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var hosted collection
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &hosted))
	require.Len(t, hosted.Bookings, 1)
	assert.Equal(t, "listing-1", hosted.Bookings[0].ListingID)

	// Per-listing ledger is owner-only.
	resp = srv.do(t, http.MethodGet, "/api/v1/bookings/listings/listing-1", lebron, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var ledger collection
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &ledger))
	require.Len(t, ledger.Bookings, 1)
	assert.Equal(t, "jlo", ledger.Bookings[0].Username)

	resp = srv.do(t, http.MethodGet, "/api/v1/bookings/listings/listing-1", jlo, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "jlo")

	resp := srv.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var profile struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	assert.Equal(t, "jlo", profile.Username)

	// Wrong password.
	resp = srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "jlo", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Correct login issues a fresh token.
	resp = srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "jlo", "password": "correct-horse-battery"})
	require.Equal(t, http.StatusOK, resp.Code)

	// Logout invalidates the session.
	resp = srv.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)
	resp = srv.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "jlo", "email": "other@example.com", "password": "another-password"})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = srv.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

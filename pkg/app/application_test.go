package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityhandler "rentals/internal/availability/handler"
	availabilityrepo "rentals/internal/availability/repository"
	availability "rentals/internal/availability/service"
	availabilityvalidator "rentals/internal/availability/validator"
	bookingshandler "rentals/internal/bookings/handler"
	bookingsrepo "rentals/internal/bookings/repository"
	bookings "rentals/internal/bookings/service"
	bookingsvalidator "rentals/internal/bookings/validator"
	sqlMigration "rentals/internal/migrations/sql"
	"rentals/pkg/client"
	"rentals/pkg/config"
	"rentals/pkg/db"
	"rentals/pkg/events"
	"rentals/pkg/logger"
)

const signingSecret = "test-signing-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	gdb, err := client.OpenSQLite(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                      "0",
		Log:                       logger.Discard(),
		AvailabilityMaxWindowDays: config.DefaultAvailabilityMaxWindowDays,
		ServiceSigningSecret:      signingSecret,
		RateLimitRequests:         1000,
		RateLimitWindow:           time.Minute,
		RequestTimeout:            5 * time.Second,
		IdempotencyTTL:            time.Minute,
		MaxRequestSize:            1 << 20,
		ShutdownTimeout:           time.Second,
		Client:                    &client.Client{SQL: gdb},
	}
	require.NoError(t, sqlMigration.RunMigration(context.Background(), gdb, cfg.Log))

	store := availabilityrepo.NewSQLBookingStore(gdb, db.RetryPolicy{MaxRetries: 5, Backoff: 5 * time.Millisecond})
	engine := availability.NewAvailabilityEngine(store, availabilityvalidator.NewRuleValidator(cfg.Log), events.Noop(), cfg)
	bookingService := bookings.NewBookingService(
		bookingsrepo.NewSQLBookingRepository(gdb),
		engine,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		events.Noop(),
		cfg,
	)

	a := NewApplication()
	a.SetApp(cfg,
		availabilityhandler.NewHealthHandler(store, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(engine, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
	)

	server := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		server.Close()
		a.Stop()
		cfg.GracefulShutdown()
	})
	return server
}

func TestApplication_HealthAndReady(t *testing.T) {
	server := newTestServer(t)
	c := client.NewHttpClient(server.URL)

	resp, err := c.GET("/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.GET("/ready")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApplication_InternalRoutesRequireSignature(t *testing.T) {
	server := newTestServer(t)

	unsigned := client.NewAvailabilityClient(server.URL, "")
	resp, err := unsigned.ReserveRange("L1", "2099-06-01", "2099-06-05", "b-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	wrongKey := client.NewAvailabilityClient(server.URL, "other-secret")
	resp, err = wrongKey.ReleaseRange("b-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	signed := client.NewAvailabilityClient(server.URL, signingSecret)
	resp, err = signed.ReserveRange("L1", "2099-06-01", "2099-06-05", "b-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())

	// public routes stay open
	resp, err = unsigned.CheckAvailability("L1", "2099-06-03", "2099-06-04")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.ToString())
	result, err := unsigned.DecodeCheckResult(resp)
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.ConflictingRanges, 1)
	assert.Equal(t, "2099-06-01", result.ConflictingRanges[0].StartDate)
	assert.Equal(t, "2099-06-05", result.ConflictingRanges[0].EndDate)

	resp, err = signed.ReleaseRange("b-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = unsigned.CheckAvailability("L1", "2099-06-01", "2099-06-05")
	require.NoError(t, err)
	result, err = unsigned.DecodeCheckResult(resp)
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestApplication_BookingLifecycle(t *testing.T) {
	server := newTestServer(t)
	bookingClient := client.NewBookingClient(server.URL)
	availabilityClient := client.NewAvailabilityClient(server.URL, "")

	create := func(start, end string) string {
		resp, err := bookingClient.Create(map[string]string{
			"listingId": "L9",
			"renterId":  "renter-1",
			"startDate": start,
			"endDate":   end,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())
		booking, err := bookingClient.DecodeBooking(resp)
		require.NoError(t, err)
		return booking.ID
	}

	first := create("2099-07-01", "2099-07-05")
	second := create("2099-07-04", "2099-07-08")

	resp, err := bookingClient.Confirm(first)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.ToString())

	resp, err = bookingClient.Confirm(second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, resp.ToString())

	resp, err = bookingClient.GetByID(second)
	require.NoError(t, err)
	loser, err := bookingClient.DecodeBooking(resp)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", string(loser.Status))

	resp, err = availabilityClient.GetAvailableDates("L9", "2099-07-01", "2099-07-08")
	require.NoError(t, err)
	dates, err := availabilityClient.DecodeAvailableDates(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"2099-07-05", "2099-07-06", "2099-07-07"}, dates.Dates)

	resp, err = availabilityClient.CreateRule("L9", map[string]string{
		"startDate": "2099-07-03",
		"endDate":   "2099-07-06",
		"kind":      "BLOCKED",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "blocking booked dates must fail")

	resp, err = bookingClient.Cancel(first)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.ToString())

	resp, err = availabilityClient.CheckAvailability("L9", "2099-07-01", "2099-07-08")
	require.NoError(t, err)
	result, err := availabilityClient.DecodeCheckResult(resp)
	require.NoError(t, err)
	assert.True(t, result.Available)

	resp, err = bookingClient.ListByListing("L9", 10, 0)
	require.NoError(t, err)
	list, meta, err := bookingClient.DecodeBookings(resp)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(2), meta.TotalCount)
}

package common

import (
	"fmt"
	"os"
	"testing"
	"time"

	"rentals/pkg/client"
)

const healthTimeout = 30 * time.Second

type IntegrationTestSuite struct {
	ServerURL    string
	Availability *client.AvailabilityClient
	Bookings     *client.BookingClient
	HTTP         *client.HttpClient
}

// NewIntegrationTestSuite targets the service at TEST_SERVER_URL and skips
// the test when it is unset.
func NewIntegrationTestSuite(t *testing.T) *IntegrationTestSuite {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set, skipping integration tests")
	}

	httpClient := client.NewHttpClient(serverURL)
	if err := httpClient.WaitForHealthy(healthTimeout); err != nil {
		t.Fatalf("service not healthy: %v", err)
	}

	return &IntegrationTestSuite{
		ServerURL:    serverURL,
		Availability: client.NewAvailabilityClient(serverURL, os.Getenv("SERVICE_SIGNING_SECRET")),
		Bookings:     client.NewBookingClient(serverURL),
		HTTP:         httpClient,
	}
}

// UniqueListingID keeps runs against a shared store from colliding.
func UniqueListingID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

package availability

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"rentals/pkg/client"
	"rentals/test/common"
)

func TestReserveCheckRelease(t *testing.T) {
	suite := common.NewIntegrationTestSuite(t)
	listingID := common.UniqueListingID("it-reserve")

	resp, err := suite.Availability.ReserveRange(listingID, "2099-06-01", "2099-06-05", listingID+"-b1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reserve: expected 201, got %s", resp.ToString())
	}

	resp, err = suite.Availability.CheckAvailability(listingID, "2099-06-03", "2099-06-04")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	result, err := suite.Availability.DecodeCheckResult(resp)
	if err != nil {
		t.Fatal(err)
	}
	if result.Available || len(result.ConflictingRanges) != 1 {
		t.Errorf("expected one conflict, got %+v", result)
	}

	resp, err = suite.Availability.CheckAvailability(listingID, "2099-06-05", "2099-06-10")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	result, err = suite.Availability.DecodeCheckResult(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Available {
		t.Errorf("checkout day must be available, got %+v", result)
	}

	for range 2 {
		resp, err = suite.Availability.ReleaseRange(listingID + "-b1")
		if err != nil {
			t.Fatalf("release: %v", err)
		}
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("release: expected 204, got %s", resp.ToString())
		}
	}
}

func TestConcurrentReservationsOneWins(t *testing.T) {
	suite := common.NewIntegrationTestSuite(t)
	listingID := common.UniqueListingID("it-race")

	const workers = 8
	var wg sync.WaitGroup
	responses := make([]*client.Response, workers)
	errs := make([]error, workers)

	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			bookingID := fmt.Sprintf("%s-b%d", listingID, i)
			responses[i], errs[i] = suite.Availability.ReserveRange(listingID, "2099-08-01", "2099-08-04", bookingID)
		}()
	}
	close(start)
	wg.Wait()

	created := 0
	for i, resp := range responses {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		switch resp.StatusCode {
		case http.StatusCreated:
			created++
		case http.StatusConflict, http.StatusServiceUnavailable:
		default:
			t.Errorf("worker %d: unexpected response %s", i, resp.ToString())
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one reservation to succeed, got %d", created)
	}
}

func TestBookingConfirmAndCancel(t *testing.T) {
	suite := common.NewIntegrationTestSuite(t)
	listingID := common.UniqueListingID("it-booking")

	resp, err := suite.Bookings.Create(map[string]string{
		"listingId": listingID,
		"renterId":  "renter-it",
		"startDate": "2099-09-01",
		"endDate":   "2099-09-04",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %s", resp.ToString())
	}
	booking, err := suite.Bookings.DecodeBooking(resp)
	if err != nil {
		t.Fatal(err)
	}

	resp, err = suite.Bookings.Confirm(booking.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %s", resp.ToString())
	}

	resp, err = suite.Bookings.Cancel(booking.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %s", resp.ToString())
	}

	resp, err = suite.Availability.GetAvailableDates(listingID, "2099-09-01", "2099-09-04")
	if err != nil {
		t.Fatal(err)
	}
	dates, err := suite.Availability.DecodeAvailableDates(resp)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates.Dates) != 3 {
		t.Errorf("expected all 3 dates free after cancel, got %v", dates.Dates)
	}
}

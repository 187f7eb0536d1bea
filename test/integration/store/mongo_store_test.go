package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityerrors "rentals/internal/availability/errors"
	availabilityrepo "rentals/internal/availability/repository"
	availability "rentals/internal/availability/service"
	availabilityvalidator "rentals/internal/availability/validator"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/events"
	"rentals/pkg/model"
	"rentals/test/common"
)

func dateRange(t *testing.T, start, end string) model.DateRange {
	t.Helper()
	rng, err := model.ParseDateRange(start, end)
	require.NoError(t, err)
	return rng
}

func TestMongoStore_ConcurrentOverlappingReservesOneWins(t *testing.T) {
	h := common.NewMongoHelper(t)
	cfg := h.Config(10)
	store := availabilityrepo.NewMongoBookingStore(cfg)
	engine := availability.NewAvailabilityEngine(store, availabilityvalidator.NewRuleValidator(cfg.Log), events.Noop(), cfg)

	ctx := context.Background()
	listingID := common.UniqueListingID("mongo-race")
	const workers = 8

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rng := dateRange(t, "2030-06-01", "2030-06-05")
			rng.Start = rng.Start.AddDate(0, 0, i%3)
			rng.End = rng.End.AddDate(0, 0, i%3)
			_, errs[i] = engine.ReserveRange(ctx, listingID, rng, fmt.Sprintf("%s-b%d", listingID, i))
		}()
	}
	close(start)
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case apperrors.HasCode(err, apperrors.CodeConflict), apperrors.HasCode(err, apperrors.CodeUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one overlapping reservation may commit")

	booked, err := store.FindOverlappingRanges(ctx, listingID, dateRange(t, "2030-05-01", "2030-07-01"), model.RuleBooked)
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

func TestMongoStore_AbortedTransactionLeavesNoRule(t *testing.T) {
	h := common.NewMongoHelper(t)
	store := availabilityrepo.NewMongoBookingStore(h.Config(3))
	ctx := context.Background()
	listingID := common.UniqueListingID("mongo-abort")
	rng := dateRange(t, "2030-06-01", "2030-06-05")

	errAbort := errors.New("abort")
	err := store.ExecuteListingTransaction(ctx, listingID, func(txCtx context.Context) error {
		if _, err := store.InsertBookedRange(txCtx, listingID, rng, "b1"); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = store.FindBookedRange(ctx, "b1")
	assert.ErrorIs(t, err, availabilityerrors.ErrRuleNotFound)
}

func TestMongoStore_BookingIDUniqueAmongBookedRules(t *testing.T) {
	h := common.NewMongoHelper(t)
	store := availabilityrepo.NewMongoBookingStore(h.Config(3))
	ctx := context.Background()
	listingID := common.UniqueListingID("mongo-unique")

	_, err := store.InsertBookedRange(ctx, listingID, dateRange(t, "2030-06-01", "2030-06-05"), "b1")
	require.NoError(t, err)

	_, err = store.InsertBookedRange(ctx, listingID, dateRange(t, "2030-07-01", "2030-07-05"), "b1")
	assert.ErrorIs(t, err, availabilityerrors.ErrDuplicateBooking)

	for range 2 {
		blocked := dateRange(t, "2030-08-01", "2030-08-05")
		require.NoError(t, store.InsertRule(ctx, &model.AvailabilityRule{
			ListingID: listingID,
			StartDate: blocked.Start,
			EndDate:   blocked.End,
			Kind:      model.RuleBlocked,
		}), "blocked rules carry no booking id and may repeat")
	}
}

func TestMongoStore_ReleaseIsIdempotent(t *testing.T) {
	h := common.NewMongoHelper(t)
	cfg := h.Config(3)
	store := availabilityrepo.NewMongoBookingStore(cfg)
	engine := availability.NewAvailabilityEngine(store, availabilityvalidator.NewRuleValidator(cfg.Log), events.Noop(), cfg)
	ctx := context.Background()
	listingID := common.UniqueListingID("mongo-release")
	rng := dateRange(t, "2030-06-01", "2030-06-05")

	_, err := engine.ReserveRange(ctx, listingID, rng, "b1")
	require.NoError(t, err)

	require.NoError(t, engine.ReleaseRange(ctx, "b1"))
	require.NoError(t, engine.ReleaseRange(ctx, "b1"))

	result, err := engine.CheckAvailability(ctx, listingID, rng)
	require.NoError(t, err)
	assert.True(t, result.Available)
}

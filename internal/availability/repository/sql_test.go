package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	availabilityerrors "rentals/internal/availability/errors"
	"rentals/pkg/client"
	"rentals/pkg/db"
	"rentals/pkg/model"
)

func setupStore(t *testing.T) (BookingStore, *gorm.DB) {
	t.Helper()
	gdb, err := client.OpenSQLite(filepath.Join(t.TempDir(), "availability.db"))
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.AvailabilityRule{}, &model.ListingCalendar{}))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewSQLBookingStore(gdb, db.RetryPolicy{MaxRetries: 3, Backoff: 5 * time.Millisecond}), gdb
}

func dateRange(t *testing.T, start, end string) model.DateRange {
	t.Helper()
	rng, err := model.ParseDateRange(start, end)
	require.NoError(t, err)
	return rng
}

func TestSQLStore_FindOverlappingRanges(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.InsertBookedRange(ctx, "L1", dateRange(t, "2024-06-01", "2024-06-05"), "b1")
	require.NoError(t, err)
	require.NoError(t, store.InsertRule(ctx, &model.AvailabilityRule{
		ListingID: "L1",
		StartDate: dateRange(t, "2024-05-20", "2024-05-25").Start,
		EndDate:   dateRange(t, "2024-05-20", "2024-05-25").End,
		Kind:      model.RuleBlocked,
	}))
	require.NoError(t, store.InsertRule(ctx, &model.AvailabilityRule{
		ListingID: "L2",
		StartDate: dateRange(t, "2024-06-01", "2024-06-05").Start,
		EndDate:   dateRange(t, "2024-06-01", "2024-06-05").End,
		Kind:      model.RuleBlocked,
	}))

	rules, err := store.FindOverlappingRanges(ctx, "L1", dateRange(t, "2024-06-03", "2024-06-04"), model.OccupyingKinds...)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "b1", rules[0].BookingID)
	assert.True(t, rules[0].Range().Equal(dateRange(t, "2024-06-01", "2024-06-05")))

	rules, err = store.FindOverlappingRanges(ctx, "L1", dateRange(t, "2024-06-05", "2024-06-10"))
	require.NoError(t, err)
	assert.Empty(t, rules, "touching ranges must not overlap")

	rules, err = store.FindOverlappingRanges(ctx, "L1", dateRange(t, "2024-05-01", "2024-07-01"))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, model.RuleBlocked, rules[0].Kind, "results are ordered by start date")
	assert.Equal(t, model.RuleBooked, rules[1].Kind)

	rules, err = store.FindOverlappingRanges(ctx, "L1", dateRange(t, "2024-05-01", "2024-07-01"), model.RuleBooked)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestSQLStore_DuplicateBookingID(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.InsertBookedRange(ctx, "L1", dateRange(t, "2024-06-01", "2024-06-05"), "b1")
	require.NoError(t, err)

	_, err = store.InsertBookedRange(ctx, "L1", dateRange(t, "2024-07-01", "2024-07-05"), "b1")
	assert.ErrorIs(t, err, availabilityerrors.ErrDuplicateBooking)
}

func TestSQLStore_DeleteBookedRange(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.InsertBookedRange(ctx, "L1", dateRange(t, "2024-06-01", "2024-06-05"), "b1")
	require.NoError(t, err)

	deleted, err := store.DeleteBookedRange(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "L1", deleted.ListingID)

	_, err = store.DeleteBookedRange(ctx, "b1")
	assert.ErrorIs(t, err, availabilityerrors.ErrRuleNotFound)

	_, err = store.FindBookedRange(ctx, "b1")
	assert.ErrorIs(t, err, availabilityerrors.ErrRuleNotFound)
}

func TestSQLStore_ListingTransactionBumpsVersion(t *testing.T) {
	store, gdb := setupStore(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, store.ExecuteListingTransaction(ctx, "L1", func(context.Context) error { return nil }))
	}

	var calendar model.ListingCalendar
	require.NoError(t, gdb.First(&calendar, "listing_id = ?", "L1").Error)
	assert.Equal(t, int64(3), calendar.Version)
}

func TestSQLStore_ListingTransactionRollsBack(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	abort := errors.New("abort")

	err := store.ExecuteListingTransaction(ctx, "L1", func(txCtx context.Context) error {
		if _, err := store.InsertBookedRange(txCtx, "L1", dateRange(t, "2024-06-01", "2024-06-05"), "b1"); err != nil {
			return err
		}
		return abort
	})
	assert.ErrorIs(t, err, abort)

	_, err = store.FindBookedRange(ctx, "b1")
	assert.ErrorIs(t, err, availabilityerrors.ErrRuleNotFound)
}

func TestSQLStore_ConcurrentCheckAndInsert(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	conflict := errors.New("conflict")

	ranges := []model.DateRange{
		dateRange(t, "2024-06-01", "2024-06-05"),
		dateRange(t, "2024-06-03", "2024-06-07"),
	}

	var wg sync.WaitGroup
	results := make([]error, len(ranges))
	for i, rng := range ranges {
		wg.Add(1)
		go func(i int, rng model.DateRange) {
			defer wg.Done()
			results[i] = store.ExecuteListingTransaction(ctx, "L1", func(txCtx context.Context) error {
				existing, err := store.FindOverlappingRanges(txCtx, "L1", rng, model.RuleBooked)
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					return conflict
				}
				_, err = store.InsertBookedRange(txCtx, "L1", rng, "booking-"+rng.Start.Format(model.DateLayout))
				return err
			})
		}(i, rng)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, conflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	booked, err := store.FindOverlappingRanges(ctx, "L1", dateRange(t, "2024-05-01", "2024-07-01"), model.RuleBooked)
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	availabilityerrors "rentals/internal/availability/errors"
	"rentals/internal/availability/repository"
	"rentals/internal/availability/validator"
	"rentals/pkg/config"
	"rentals/pkg/db"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/events"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
)

const storeName = "Availability store"

type AvailabilityResult struct {
	Available         bool
	ConflictingRanges []model.DateRange
}

// AvailabilityEngine decides whether dates are free and reserves them. A
// listing's BOOKED ranges never overlap.
type AvailabilityEngine interface {
	CheckAvailability(ctx context.Context, listingID string, rng model.DateRange) (*AvailabilityResult, error)
	GetListingAvailability(ctx context.Context, listingID string, rng model.DateRange) ([]*model.AvailabilityRule, error)
	GetAvailableDates(ctx context.Context, listingID string, rng model.DateRange) (iter.Seq[time.Time], error)
	CreateAvailabilityRule(ctx context.Context, listingID string, rng model.DateRange, kind model.RuleKind, note string) (*model.AvailabilityRule, error)
	ReserveRange(ctx context.Context, listingID string, rng model.DateRange, bookingID string) (*model.AvailabilityRule, error)
	ReleaseRange(ctx context.Context, bookingID string) error
}

type availabilityEngine struct {
	store     repository.BookingStore
	validator *validator.RuleValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewAvailabilityEngine(
	store repository.BookingStore,
	validator *validator.RuleValidator,
	publisher events.Publisher,
	cfg *config.Config,
) AvailabilityEngine {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &availabilityEngine{
		store:     store,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (e *availabilityEngine) CheckAvailability(ctx context.Context, listingID string, rng model.DateRange) (*AvailabilityResult, error) {
	rng, err := e.validateQuery(listingID, rng)
	if err != nil {
		return nil, err
	}

	conflicts, err := e.store.FindOverlappingRanges(ctx, listingID, rng, model.OccupyingKinds...)
	if err != nil {
		return nil, e.storeError("Failed to check availability", err)
	}

	return &AvailabilityResult{
		Available:         len(conflicts) == 0,
		ConflictingRanges: ranges(conflicts),
	}, nil
}

func (e *availabilityEngine) GetListingAvailability(ctx context.Context, listingID string, rng model.DateRange) ([]*model.AvailabilityRule, error) {
	rng, err := e.validateQuery(listingID, rng)
	if err != nil {
		return nil, err
	}

	rules, err := e.store.FindOverlappingRanges(ctx, listingID, rng)
	if err != nil {
		return nil, e.storeError("Failed to load availability rules", err)
	}
	return rules, nil
}

// GetAvailableDates loads the occupying rules once and returns a sequence
// that walks the window day by day, skipping covered dates.
func (e *availabilityEngine) GetAvailableDates(ctx context.Context, listingID string, rng model.DateRange) (iter.Seq[time.Time], error) {
	rng, err := e.validateQuery(listingID, rng)
	if err != nil {
		return nil, err
	}
	if maxDays := e.cfg.AvailabilityMaxWindowDays; maxDays > 0 && rng.Nights() > maxDays {
		return nil, apperrors.InvalidRange(fmt.Sprintf("date window cannot exceed %d days", maxDays))
	}

	occupied, err := e.store.FindOverlappingRanges(ctx, listingID, rng, model.OccupyingKinds...)
	if err != nil {
		return nil, e.storeError("Failed to load availability rules", err)
	}
	covered := ranges(occupied)

	return func(yield func(time.Time) bool) {
		for day := range rng.Days() {
			if coveredBy(covered, day) {
				continue
			}
			if !yield(day) {
				return
			}
		}
	}, nil
}

func (e *availabilityEngine) CreateAvailabilityRule(ctx context.Context, listingID string, rng model.DateRange, kind model.RuleKind, note string) (*model.AvailabilityRule, error) {
	rng, err := e.validateQuery(listingID, rng)
	if err != nil {
		return nil, err
	}

	rule := &model.AvailabilityRule{
		ListingID: listingID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Kind:      kind,
		Note:      sanitizer.SanitizeNote(note),
	}
	if err := e.validator.Validate(rule); err != nil {
		e.cfg.Log.Warn("Availability rule validation failed", "listing_id", listingID, "kind", kind, "error", err)
		return nil, apperrors.Validation("Invalid availability rule", map[string]any{"errors": err})
	}

	var conflicts []*model.AvailabilityRule
	err = e.store.ExecuteListingTransaction(ctx, listingID, func(txCtx context.Context) error {
		conflicts = nil
		if kind == model.RuleBlocked {
			booked, err := e.store.FindOverlappingRanges(txCtx, listingID, rng, model.RuleBooked)
			if err != nil {
				return err
			}
			if len(booked) > 0 {
				conflicts = booked
				return nil
			}
		}
		return e.store.InsertRule(txCtx, rule)
	})
	if err != nil {
		e.cfg.Log.Error("Failed to create availability rule", "listing_id", listingID, "error", err)
		return nil, e.storeError("Failed to create availability rule", err)
	}
	if len(conflicts) > 0 {
		e.cfg.Log.Info("Blocked range rejected, overlaps booked dates",
			"listing_id", listingID,
			"range", rng.String(),
			"conflicts", len(conflicts),
		)
		return nil, conflictError("Blocked range overlaps booked dates", conflicts)
	}

	e.cfg.Log.Info("Availability rule created",
		"id", rule.ID,
		"listing_id", listingID,
		"kind", kind,
		"range", rng.String(),
	)

	evt := events.New(events.TypeRuleCreated, listingID, rng)
	evt.RuleID = rule.ID
	evt.Kind = kind
	e.publish(ctx, evt)

	return rule, nil
}

// ReserveRange inserts a BOOKED rule for bookingID unless another booked
// range overlaps. Repeating a reservation for the same booking and range
// returns the existing rule.
func (e *availabilityEngine) ReserveRange(ctx context.Context, listingID string, rng model.DateRange, bookingID string) (*model.AvailabilityRule, error) {
	rng, err := e.validateQuery(listingID, rng)
	if err != nil {
		return nil, err
	}
	if bookingID == "" {
		return nil, apperrors.Validation("Booking ID is required", map[string]any{"field": "bookingId"})
	}

	var (
		reserved  *model.AvailabilityRule
		existing  bool
		conflicts []*model.AvailabilityRule
	)
	err = e.store.ExecuteListingTransaction(ctx, listingID, func(txCtx context.Context) error {
		reserved, existing, conflicts = nil, false, nil

		held, err := e.store.FindBookedRange(txCtx, bookingID)
		switch {
		case err == nil:
			if held.ListingID == listingID && held.Range().Equal(rng) {
				reserved, existing = held, true
				return nil
			}
			conflicts = []*model.AvailabilityRule{held}
			return nil
		case !errors.Is(err, availabilityerrors.ErrRuleNotFound):
			return err
		}

		booked, err := e.store.FindOverlappingRanges(txCtx, listingID, rng, model.RuleBooked)
		if err != nil {
			return err
		}
		if len(booked) > 0 {
			conflicts = booked
			return nil
		}

		reserved, err = e.store.InsertBookedRange(txCtx, listingID, rng, bookingID)
		return err
	})
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrDuplicateBooking) {
			return nil, apperrors.Conflict("Booking already holds a different reserved range")
		}
		e.cfg.Log.Error("Failed to reserve range", "listing_id", listingID, "booking_id", bookingID, "error", err)
		return nil, e.storeError("Failed to reserve range", err)
	}

	if len(conflicts) > 0 {
		e.cfg.Log.Info("Reservation conflict",
			"listing_id", listingID,
			"booking_id", bookingID,
			"range", rng.String(),
			"conflicts", len(conflicts),
		)
		evt := events.New(events.TypeReservationConflict, listingID, rng)
		evt.BookingID = bookingID
		evt.ConflictingRanges = model.NewDateRangeDTOs(ranges(conflicts))
		e.publish(ctx, evt)
		return nil, conflictError("Requested dates are no longer available", conflicts)
	}

	if existing {
		e.cfg.Log.Debug("Range already reserved for booking", "listing_id", listingID, "booking_id", bookingID)
		return reserved, nil
	}

	e.cfg.Log.Info("Range reserved",
		"id", reserved.ID,
		"listing_id", listingID,
		"booking_id", bookingID,
		"range", rng.String(),
	)

	evt := events.New(events.TypeRangeReserved, listingID, rng)
	evt.BookingID = bookingID
	evt.RuleID = reserved.ID
	e.publish(ctx, evt)

	return reserved, nil
}

// ReleaseRange deletes the BOOKED rule of bookingID. Releasing a booking
// that holds nothing is a no-op.
func (e *availabilityEngine) ReleaseRange(ctx context.Context, bookingID string) error {
	if bookingID == "" {
		return apperrors.Validation("Booking ID is required", map[string]any{"field": "bookingId"})
	}

	held, err := e.store.FindBookedRange(ctx, bookingID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrRuleNotFound) {
			e.cfg.Log.Debug("Nothing to release", "booking_id", bookingID)
			return nil
		}
		return e.storeError("Failed to release range", err)
	}

	var released *model.AvailabilityRule
	err = e.store.ExecuteListingTransaction(ctx, held.ListingID, func(txCtx context.Context) error {
		rule, err := e.store.DeleteBookedRange(txCtx, bookingID)
		if errors.Is(err, availabilityerrors.ErrRuleNotFound) {
			released = nil
			return nil
		}
		released = rule
		return err
	})
	if err != nil {
		e.cfg.Log.Error("Failed to release range", "booking_id", bookingID, "error", err)
		return e.storeError("Failed to release range", err)
	}
	if released == nil {
		return nil
	}

	e.cfg.Log.Info("Range released",
		"listing_id", released.ListingID,
		"booking_id", bookingID,
		"range", released.Range().String(),
	)

	evt := events.New(events.TypeRangeReleased, released.ListingID, released.Range())
	evt.BookingID = bookingID
	evt.RuleID = released.ID
	e.publish(ctx, evt)

	return nil
}

func (e *availabilityEngine) validateQuery(listingID string, rng model.DateRange) (model.DateRange, error) {
	if listingID == "" {
		return model.DateRange{}, apperrors.InvalidInput("Listing ID cannot be empty")
	}
	normalized, err := model.NewDateRange(rng.Start, rng.End)
	if err != nil {
		return model.DateRange{}, apperrors.InvalidRange(err.Error())
	}
	return normalized, nil
}

func (e *availabilityEngine) storeError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, db.ErrTransactionExhausted):
		return apperrors.Unavailable(storeName, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout(message + ": deadline exceeded")
	}
	return apperrors.Internal(message, err)
}

func (e *availabilityEngine) publish(ctx context.Context, evt events.Event) {
	if err := e.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		e.cfg.Log.Warn("Failed to publish event",
			"event_type", evt.Type,
			"listing_id", evt.ListingID,
			"booking_id", evt.BookingID,
			"error", err,
		)
	}
}

func conflictError(message string, conflicts []*model.AvailabilityRule) error {
	return apperrors.Conflict(message).WithDetails(map[string]any{
		"conflictingRanges": model.NewDateRangeDTOs(ranges(conflicts)),
	})
}

func ranges(rules []*model.AvailabilityRule) []model.DateRange {
	out := make([]model.DateRange, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Range())
	}
	return out
}

func coveredBy(ranges []model.DateRange, day time.Time) bool {
	for _, r := range ranges {
		if r.Contains(day) {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	availability "rentals/internal/availability/service"
	bookingserrors "rentals/internal/bookings/errors"
	"rentals/internal/bookings/repository"
	"rentals/internal/bookings/validator"
	"rentals/pkg/config"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/events"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.BookingReservation) error
	GetByID(ctx context.Context, id string) (*model.BookingReservation, error)
	ListByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.BookingReservation, int64, error)
	Confirm(ctx context.Context, id string) (*model.BookingReservation, error)
	Cancel(ctx context.Context, id string) (*model.BookingReservation, error)
	Complete(ctx context.Context, id string) (*model.BookingReservation, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	engine    availability.AvailabilityEngine
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	engine availability.AvailabilityEngine,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &bookingService{
		repo:      repo,
		engine:    engine,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create records a PENDING request. Pending bookings do not hold dates.
func (s *bookingService) Create(ctx context.Context, booking *model.BookingReservation) error {
	booking.ListingID = sanitizer.SanitizeID(booking.ListingID)
	booking.RenterID = sanitizer.SanitizeID(booking.RenterID)
	booking.StartDate = model.TruncateDate(booking.StartDate)
	booking.EndDate = model.TruncateDate(booking.EndDate)
	booking.Status = model.StatusPending

	if !booking.StartDate.Before(booking.EndDate) {
		return apperrors.InvalidRange(model.ErrInvalidDateRange.Error())
	}
	if err := s.validator.Validate(booking, s.now().UTC()); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "listing_id", booking.ListingID, "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"errors": err})
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "listing_id", booking.ListingID, "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"listing_id", booking.ListingID,
		"renter_id", booking.RenterID,
		"range", booking.Range().String(),
	)
	s.publish(ctx, events.TypeBookingCreated, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingReservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repositoryError(id, "Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) ListByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.BookingReservation, int64, error) {
	if listingID == "" {
		return nil, 0, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	var count int64
	var bookings []*model.BookingReservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByListing(ctx, listingID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "listing_id", listingID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.ListByListing(ctx, listingID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "listing_id", listingID, "limit", limit, "offset", offset, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Confirm reserves the booking's dates. If another booking got there first
// the request is cancelled and the conflict is returned.
func (s *bookingService) Confirm(ctx context.Context, id string) (*model.BookingReservation, error) {
	booking, err := s.loadForTransition(ctx, id, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}

	if _, err := s.engine.ReserveRange(ctx, booking.ListingID, booking.Range(), booking.ID); err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			return nil, err
		}

		s.cfg.Log.Info("Booking dates no longer available, cancelling", "id", id, "listing_id", booking.ListingID)
		if cancelErr := s.transition(ctx, booking, model.StatusCancelled); cancelErr != nil {
			s.cfg.Log.Error("Failed to cancel conflicting booking", "id", id, "error", cancelErr)
		}
		conflict := apperrors.Conflict("Booking dates are no longer available")
		if details := apperrors.AsAppError(err).Details; details != nil {
			conflict = conflict.WithDetails(details)
		}
		return nil, conflict
	}

	if err := s.transition(ctx, booking, model.StatusConfirmed); err != nil {
		s.releaseIfUnheld(ctx, booking.ID)
		return nil, err
	}

	return booking, nil
}

// releaseIfUnheld undoes a reservation whose status update failed. The
// range belongs to the booking, not to this call: a concurrent confirm may
// already own it, so it is only released when the stored status no longer
// holds dates.
func (s *bookingService) releaseIfUnheld(ctx context.Context, id string) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to reload booking after confirm failure, keeping range", "id", id, "error", err)
		return
	}
	if current.Status.OccupiesRange() {
		return
	}
	if err := s.engine.ReleaseRange(ctx, id); err != nil {
		s.cfg.Log.Error("Failed to release range after confirm failure", "id", id, "error", err)
	}
}

// Cancel marks the booking cancelled, then frees its dates if it held them.
// The status update is conditional, so a booking completed in the meantime
// keeps its range.
func (s *bookingService) Cancel(ctx context.Context, id string) (*model.BookingReservation, error) {
	booking, err := s.loadForTransition(ctx, id, model.StatusCancelled)
	if err != nil {
		return nil, err
	}

	held := booking.Status.OccupiesRange()
	if err := s.transition(ctx, booking, model.StatusCancelled); err != nil {
		return nil, err
	}

	if held {
		if err := s.engine.ReleaseRange(ctx, booking.ID); err != nil {
			s.cfg.Log.Error("Failed to release range of cancelled booking", "id", id, "error", err)
			return nil, err
		}
	}
	return booking, nil
}

// Complete closes a confirmed stay once its checkout date has arrived. The
// range stays reserved.
func (s *bookingService) Complete(ctx context.Context, id string) (*model.BookingReservation, error) {
	booking, err := s.loadForTransition(ctx, id, model.StatusCompleted)
	if err != nil {
		return nil, err
	}

	if model.TruncateDate(s.now().UTC()).Before(booking.EndDate) {
		return nil, apperrors.InvalidState("Booking cannot be completed before its end date")
	}

	if err := s.transition(ctx, booking, model.StatusCompleted); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) loadForTransition(ctx context.Context, id string, next model.ReservationStatus) (*model.BookingReservation, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, apperrors.InvalidState("Booking is already " + string(booking.Status))
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, apperrors.InvalidState("Cannot move booking from " + string(booking.Status) + " to " + string(next))
	}
	return booking, nil
}

func (s *bookingService) transition(ctx context.Context, booking *model.BookingReservation, next model.ReservationStatus) error {
	from := booking.Status
	if err := s.repo.UpdateStatus(ctx, booking.ID, from, next); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return apperrors.InvalidState("Booking status changed by another request")
		}
		s.cfg.Log.Error("Failed to update booking status", "id", booking.ID, "from", from, "to", next, "error", err)
		return s.repositoryError(booking.ID, "Failed to update booking", err)
	}

	booking.Status = next
	booking.UpdatedAt = s.now().UTC()
	s.cfg.Log.Info("Booking status updated", "id", booking.ID, "from", from, "to", next)

	switch next {
	case model.StatusConfirmed:
		s.publish(ctx, events.TypeBookingConfirmed, booking)
	case model.StatusCancelled:
		s.publish(ctx, events.TypeBookingCancelled, booking)
	case model.StatusCompleted:
		s.publish(ctx, events.TypeBookingCompleted, booking)
	}
	return nil
}

func (s *bookingService) repositoryError(id, message string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal(message, err)
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.BookingReservation) {
	evt := events.New(eventType, booking.ListingID, booking.Range())
	evt.BookingID = booking.ID
	evt.Status = booking.Status
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.cfg.Log.Warn("Failed to publish event", "event_type", eventType, "booking_id", booking.ID, "error", err)
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingserrors "rentals/internal/bookings/errors"
	"rentals/pkg/model"
)

type sqlBookingRepository struct {
	db *gorm.DB
}

func NewSQLBookingRepository(gdb *gorm.DB) BookingRepository {
	return &sqlBookingRepository{db: gdb}
}

func (r *sqlBookingRepository) Create(ctx context.Context, booking *model.BookingReservation) error {
	now := time.Now().UTC()
	booking.ID = uuid.NewString()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *sqlBookingRepository) FindByID(ctx context.Context, id string) (*model.BookingReservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.BookingReservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	normalizeBooking(&booking)
	return &booking, nil
}

func (r *sqlBookingRepository) ListByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.BookingReservation, error) {
	bookings := make([]*model.BookingReservation, 0)
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("start_date ASC").
		Order("created_at ASC").
		Limit(limit).
		Offset(int(offset)).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	for _, b := range bookings {
		normalizeBooking(b)
	}
	return bookings, nil
}

func (r *sqlBookingRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BookingReservation{}).
		Where("listing_id = ?", listingID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *sqlBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result := r.db.WithContext(ctx).
		Model(&model.BookingReservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.BookingReservation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check booking existence: %w", err)
	}
	if count == 0 {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrStatusChanged
}

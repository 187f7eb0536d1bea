package repository

import (
	"context"

	"rentals/pkg/model"
)

const CollectionName = "BookingReservations"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.BookingReservation) error
	FindByID(ctx context.Context, id string) (*model.BookingReservation, error)
	ListByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.BookingReservation, error)
	CountByListing(ctx context.Context, listingID string) (int64, error)
	// UpdateStatus moves a booking from one status to another. It fails with
	// ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus) error
}

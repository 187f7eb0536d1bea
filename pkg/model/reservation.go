package model

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// OccupiesRange reports whether a booking in this status holds its dates.
// Pending requests are non-binding.
func (s ReservationStatus) OccupiesRange() bool {
	return s == StatusConfirmed || s == StatusCompleted
}

func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo encodes the booking lifecycle:
// PENDING -> CONFIRMED | CANCELLED, CONFIRMED -> CANCELLED | COMPLETED.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	}
	return false
}

type BookingReservation struct {
	ID        string            `json:"id" bson:"_id,omitempty" gorm:"primaryKey;size:36"`
	ListingID string            `json:"listing_id" bson:"listing_id" validate:"required,max=64" gorm:"size:64;not null;index"`
	RenterID  string            `json:"renter_id" bson:"renter_id" validate:"required,max=64" gorm:"size:64;not null;index"`
	StartDate time.Time         `json:"start_date" bson:"start_date" validate:"required" gorm:"not null"`
	EndDate   time.Time         `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate" gorm:"not null"`
	Status    ReservationStatus `json:"status" bson:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED COMPLETED" gorm:"size:16;not null"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

func (BookingReservation) TableName() string {
	return "booking_reservations"
}

func (b *BookingReservation) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

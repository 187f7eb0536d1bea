// Package events carries availability and booking lifecycle notifications
// to downstream services.
package events

import (
	"context"
	"time"

	"rentals/pkg/model"
)

const (
	TypeRangeReserved       = "availability.range_reserved"
	TypeRangeReleased       = "availability.range_released"
	TypeRuleCreated         = "availability.rule_created"
	TypeReservationConflict = "availability.reservation_conflict"

	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingCompleted = "booking.completed"
)

const SchemaVersion = "1"

type Event struct {
	Type              string                  `json:"type"`
	ListingID         string                  `json:"listingId"`
	BookingID         string                  `json:"bookingId,omitempty"`
	RuleID            string                  `json:"ruleId,omitempty"`
	Kind              model.RuleKind          `json:"kind,omitempty"`
	Status            model.ReservationStatus `json:"status,omitempty"`
	StartDate         string                  `json:"startDate,omitempty"`
	EndDate           string                  `json:"endDate,omitempty"`
	ConflictingRanges []model.DateRangeDTO    `json:"conflictingRanges,omitempty"`
	OccurredAt        time.Time               `json:"occurredAt"`
}

// New stamps an event of the given type for a listing and date range.
func New(eventType, listingID string, rng model.DateRange) Event {
	e := Event{
		Type:       eventType,
		ListingID:  listingID,
		OccurredAt: time.Now().UTC(),
	}
	if !rng.Start.IsZero() {
		dto := model.NewDateRangeDTO(rng)
		e.StartDate, e.EndDate = dto.StartDate, dto.EndDate
	}
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type noopPublisher struct{}

// Noop discards every event. Used when Kafka is disabled.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }

package model

import "time"

type RuleKind string

const (
	RuleAvailable RuleKind = "AVAILABLE"
	RuleBlocked   RuleKind = "BLOCKED"
	RuleBooked    RuleKind = "BOOKED"
)

// OccupyingKinds are the rule kinds that make a date unavailable.
var OccupyingKinds = []RuleKind{RuleBlocked, RuleBooked}

func (k RuleKind) Valid() bool {
	switch k {
	case RuleAvailable, RuleBlocked, RuleBooked:
		return true
	}
	return false
}

type AvailabilityRule struct {
	ID        string    `json:"id" bson:"_id,omitempty" gorm:"primaryKey;size:36"`
	ListingID string    `json:"listing_id" bson:"listing_id" gorm:"size:64;not null;index:idx_rules_listing_range,priority:1"`
	StartDate time.Time `json:"start_date" bson:"start_date" gorm:"not null;index:idx_rules_listing_range,priority:2"`
	EndDate   time.Time `json:"end_date" bson:"end_date" gorm:"not null;index:idx_rules_listing_range,priority:3"`
	Kind      RuleKind  `json:"kind" bson:"kind" gorm:"size:16;not null"`
	BookingID string    `json:"booking_id,omitempty" bson:"booking_id,omitempty" gorm:"size:64;uniqueIndex:idx_rules_booking,where:kind = 'BOOKED'"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (AvailabilityRule) TableName() string {
	return "availability_rules"
}

func (r *AvailabilityRule) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// ListingCalendar is the per-listing lock record. Every transaction that
// mutates a listing's rules bumps Version first.
type ListingCalendar struct {
	ListingID string    `json:"listing_id" bson:"_id" gorm:"primaryKey;size:64"`
	Version   int64     `json:"version" bson:"version" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (ListingCalendar) TableName() string {
	return "listing_calendars"
}

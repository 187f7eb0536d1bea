package repository

import (
	"context"

	"rentals/pkg/model"
)

const (
	RulesCollectionName     = "AvailabilityRules"
	CalendarsCollectionName = "ListingCalendars"
)

// TxFunc runs inside a listing transaction. Store calls made with the ctx it
// receives join that transaction.
type TxFunc func(ctx context.Context) error

// BookingStore persists a listing's availability rules.
type BookingStore interface {
	// FindOverlappingRanges returns the listing's rules of the given kinds
	// (all kinds when none are given) that share at least one day with rng,
	// ordered by start date.
	FindOverlappingRanges(ctx context.Context, listingID string, rng model.DateRange, kinds ...model.RuleKind) ([]*model.AvailabilityRule, error)
	// FindBookedRange returns the BOOKED rule tagged with bookingID or
	// ErrRuleNotFound.
	FindBookedRange(ctx context.Context, bookingID string) (*model.AvailabilityRule, error)
	// InsertBookedRange fails with ErrDuplicateBooking when bookingID already
	// holds a BOOKED rule.
	InsertBookedRange(ctx context.Context, listingID string, rng model.DateRange, bookingID string) (*model.AvailabilityRule, error)
	InsertRule(ctx context.Context, rule *model.AvailabilityRule) error
	// DeleteBookedRange removes and returns the BOOKED rule tagged with
	// bookingID, or ErrRuleNotFound.
	DeleteBookedRange(ctx context.Context, bookingID string) (*model.AvailabilityRule, error)
	// ExecuteListingTransaction serializes fn against every other write
	// transaction on the same listing.
	ExecuteListingTransaction(ctx context.Context, listingID string, fn TxFunc) error
	Ping(ctx context.Context) error
}

func kindsOrAll(kinds []model.RuleKind) []model.RuleKind {
	if len(kinds) == 0 {
		return []model.RuleKind{model.RuleAvailable, model.RuleBlocked, model.RuleBooked}
	}
	return kinds
}

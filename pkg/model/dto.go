package model

import "time"

// Wire representations use YYYY-MM-DD strings for calendar dates.

type DateRangeDTO struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func NewDateRangeDTO(r DateRange) DateRangeDTO {
	return DateRangeDTO{
		StartDate: r.Start.Format(DateLayout),
		EndDate:   r.End.Format(DateLayout),
	}
}

func NewDateRangeDTOs(ranges []DateRange) []DateRangeDTO {
	out := make([]DateRangeDTO, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, NewDateRangeDTO(r))
	}
	return out
}

type AvailabilityCheckResult struct {
	Available         bool           `json:"available"`
	ConflictingRanges []DateRangeDTO `json:"conflictingRanges"`
}

type AvailabilityRuleDTO struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listingId"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Kind      RuleKind  `json:"kind"`
	BookingID string    `json:"bookingId,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewAvailabilityRuleDTO(r *AvailabilityRule) AvailabilityRuleDTO {
	return AvailabilityRuleDTO{
		ID:        r.ID,
		ListingID: r.ListingID,
		StartDate: r.StartDate.Format(DateLayout),
		EndDate:   r.EndDate.Format(DateLayout),
		Kind:      r.Kind,
		BookingID: r.BookingID,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

func NewAvailabilityRuleDTOs(rules []*AvailabilityRule) []AvailabilityRuleDTO {
	out := make([]AvailabilityRuleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, NewAvailabilityRuleDTO(r))
	}
	return out
}

type AvailableDatesDTO struct {
	ListingID string   `json:"listingId"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Dates     []string `json:"dates"`
}

type BookingReservationDTO struct {
	ID        string            `json:"id"`
	ListingID string            `json:"listingId"`
	RenterID  string            `json:"renterId"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func NewBookingReservationDTO(b *BookingReservation) BookingReservationDTO {
	return BookingReservationDTO{
		ID:        b.ID,
		ListingID: b.ListingID,
		RenterID:  b.RenterID,
		StartDate: b.StartDate.Format(DateLayout),
		EndDate:   b.EndDate.Format(DateLayout),
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func NewBookingReservationDTOs(bookings []*BookingReservation) []BookingReservationDTO {
	out := make([]BookingReservationDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, NewBookingReservationDTO(b))
	}
	return out
}

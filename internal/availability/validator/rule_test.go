package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
)

func validRule() *model.AvailabilityRule {
	return &model.AvailabilityRule{
		ListingID: "listing-1",
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		Kind:      model.RuleBlocked,
	}
}

func TestRuleValidator_Validate(t *testing.T) {
	v := NewRuleValidator(logger.Discard())

	tests := []struct {
		name    string
		mutate  func(r *model.AvailabilityRule)
		wantErr string
	}{
		{"blocked rule", func(r *model.AvailabilityRule) {}, ""},
		{"available rule", func(r *model.AvailabilityRule) { r.Kind = model.RuleAvailable }, ""},
		{"booked rule rejected", func(r *model.AvailabilityRule) { r.Kind = model.RuleBooked }, "Kind"},
		{"unknown kind", func(r *model.AvailabilityRule) { r.Kind = "MAINTENANCE" }, "Kind"},
		{"missing listing", func(r *model.AvailabilityRule) { r.ListingID = "" }, "ListingID is required"},
		{"end before start", func(r *model.AvailabilityRule) { r.EndDate = r.StartDate.AddDate(0, 0, -1) }, "EndDate"},
		{"note too long", func(r *model.AvailabilityRule) { r.Note = strings.Repeat("n", sanitizer.MaxNoteLength+1) }, "Note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(rule)

			err := v.Validate(rule)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error to contain %q, got %s", tt.wantErr, err)
			}
		})
	}
}

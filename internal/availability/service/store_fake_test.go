package service

import (
	"context"
	"slices"
	"strconv"
	"sync"

	availabilityerrors "rentals/internal/availability/errors"
	"rentals/internal/availability/repository"
	"rentals/pkg/events"
	"rentals/pkg/model"
)

// memoryStore serializes listing transactions with a single mutex and
// restores its rules when a transaction returns an error.
type memoryStore struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	rules  []*model.AvailabilityRule
	nextID int

	txErr error
}

var _ repository.BookingStore = (*memoryStore)(nil)

func (s *memoryStore) FindOverlappingRanges(_ context.Context, listingID string, rng model.DateRange, kinds ...model.RuleKind) ([]*model.AvailabilityRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.AvailabilityRule
	for _, r := range s.rules {
		if r.ListingID != listingID || !r.Range().Overlaps(rng) {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, r.Kind) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *model.AvailabilityRule) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return out, nil
}

func (s *memoryStore) FindBookedRange(_ context.Context, bookingID string) (*model.AvailabilityRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rules {
		if r.Kind == model.RuleBooked && r.BookingID == bookingID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, availabilityerrors.ErrRuleNotFound
}

func (s *memoryStore) InsertBookedRange(ctx context.Context, listingID string, rng model.DateRange, bookingID string) (*model.AvailabilityRule, error) {
	if _, err := s.FindBookedRange(ctx, bookingID); err == nil {
		return nil, availabilityerrors.ErrDuplicateBooking
	}
	rule := &model.AvailabilityRule{
		ListingID: listingID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Kind:      model.RuleBooked,
		BookingID: bookingID,
	}
	return rule, s.InsertRule(ctx, rule)
}

func (s *memoryStore) InsertRule(_ context.Context, rule *model.AvailabilityRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rule.ID = "rule-" + strconv.Itoa(s.nextID)
	cp := *rule
	s.rules = append(s.rules, &cp)
	return nil
}

func (s *memoryStore) DeleteBookedRange(_ context.Context, bookingID string) (*model.AvailabilityRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.rules {
		if r.Kind == model.RuleBooked && r.BookingID == bookingID {
			s.rules = slices.Delete(s.rules, i, i+1)
			return r, nil
		}
	}
	return nil, availabilityerrors.ErrRuleNotFound
}

func (s *memoryStore) ExecuteListingTransaction(ctx context.Context, _ string, fn repository.TxFunc) error {
	if s.txErr != nil {
		return s.txErr
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := slices.Clone(s.rules)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.rules = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func (s *memoryStore) count(kind model.RuleKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.rules {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

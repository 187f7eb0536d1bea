package model

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = time.DateOnly

var ErrInvalidDateRange = errors.New("end date must be after start date")

// DateRange is a half-open interval of calendar dates: Start is included,
// End is excluded. Both bounds are UTC midnight.
type DateRange struct {
	Start time.Time `json:"start_date" bson:"start_date"`
	End   time.Time `json:"end_date" bson:"end_date"`
}

// ParseDate parses a YYYY-MM-DD string into a UTC-midnight date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", s, DateLayout)
	}
	return d, nil
}

// TruncateDate drops the time-of-day component, keeping the calendar date
// as seen in t's own location.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: TruncateDate(start), End: TruncateDate(end)}
	if !r.Start.Before(r.End) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// Overlaps reports whether the two half-open ranges share at least one day.
// Ranges that only touch at an endpoint do not overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

func (r DateRange) Contains(day time.Time) bool {
	day = TruncateDate(day)
	return !day.Before(r.Start) && day.Before(r.End)
}

func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// Nights is the number of days covered by the range.
func (r DateRange) Nights() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Days yields every date in the range in ascending order. The sequence can
// be ranged over more than once.
func (r DateRange) Days() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

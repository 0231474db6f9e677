package booking

import (
	"errors"
	"fmt"
	"time"
)

// Money is an integer amount in the smallest currency unit. Floating point
// never enters settlement arithmetic.
type Money struct {
	cents int64
}

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, errors.New("money cannot be negative")
	}
	return Money{cents: cents}, nil
}

func MustMoney(cents int64) Money {
	m, err := NewMoney(cents)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

func (m Money) Sub(other Money) (Money, error) {
	return NewMoney(m.cents - other.cents)
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

// EventDate is a calendar date with no time-of-day component, normalized to UTC.
type EventDate struct {
	t time.Time
}

func NewEventDate(t time.Time) EventDate {
	y, mo, d := t.Date()
	return EventDate{t: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)}
}

func ParseEventDate(s string) (EventDate, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return EventDate{}, fmt.Errorf("invalid event date %q: %w", s, err)
	}
	return NewEventDate(t), nil
}

func (d EventDate) Time() time.Time {
	return d.t
}

func (d EventDate) String() string {
	return d.t.Format(time.DateOnly)
}

func (d EventDate) Equal(other EventDate) bool {
	return d.t.Equal(other.t)
}

// TimeRange is a half-open [start, end) interval.
type TimeRange struct {
	start time.Time
	end   time.Time
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, errors.New("start time must be before end time")
	}
	return TimeRange{start: start, end: end}, nil
}

func (r TimeRange) Start() time.Time {
	return r.start
}

func (r TimeRange) End() time.Time {
	return r.end
}

func (r TimeRange) Duration() time.Duration {
	return r.end.Sub(r.start)
}

// Overlaps uses half-open semantics: back-to-back slots do not collide.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.start.Before(other.end) && other.start.Before(r.end)
}

package domain

import (
	"fmt"
	"time"

	reserrors "reservatec/internal/reservations/errors"
	"reservatec/pkg/model"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	minutesPerDay = 24 * 60
)

// TimeOfDay is a minute offset from midnight, 00:00 to 23:59.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != len(TimeLayout) {
		return 0, reserrors.InvalidRange("time %q is not HH:MM", s)
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, reserrors.InvalidRange("time %q is not HH:MM", s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// TimeSlot is an immutable half-open interval [start, end) on one calendar date.
type TimeSlot struct {
	date  time.Time
	start TimeOfDay
	end   TimeOfDay
}

// NewTimeSlot keeps only the calendar date of date.
func NewTimeSlot(date time.Time, start, end TimeOfDay) (TimeSlot, error) {
	if !start.Valid() || !end.Valid() {
		return TimeSlot{}, reserrors.InvalidRange("times must be within 00:00-23:59, got %s-%s", start, end)
	}
	if end <= start {
		return TimeSlot{}, reserrors.InvalidRange("end %s must be after start %s", end, start)
	}
	return TimeSlot{date: dateOnly(date), start: start, end: end}, nil
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, reserrors.InvalidRange("date %q is not YYYY-MM-DD", s)
	}
	return d, nil
}

func ParseTimeSlot(date, start, end string) (TimeSlot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return TimeSlot{}, err
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeSlot{}, err
	}
	return NewTimeSlot(d, s, e)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s TimeSlot) Date() time.Time        { return s.date }
func (s TimeSlot) Start() TimeOfDay       { return s.start }
func (s TimeSlot) End() TimeOfDay         { return s.end }
func (s TimeSlot) DateString() string     { return s.date.Format(DateLayout) }
func (s TimeSlot) IsZero() bool           { return s.date.IsZero() && s.start == 0 && s.end == 0 }
func (s TimeSlot) Length() time.Duration { return (s.end - s.start).Duration() }

// Overlaps is symmetric. Adjacent slots do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if !s.date.Equal(other.date) {
		return false
	}
	return s.start < other.end && other.start < s.end
}

func (s TimeSlot) OnDate(date time.Time) bool {
	return s.date.Equal(dateOnly(date))
}

// EndsAt is the wall-clock end of the slot in loc.
func (s TimeSlot) EndsAt(loc *time.Location) time.Time {
	y, m, d := s.date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(s.end.Duration())
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.DateString(), s.start, s.end)
}

func (s TimeSlot) Record() model.SlotRecord {
	return model.SlotRecord{
		Date:  s.DateString(),
		Start: s.start.String(),
		End:   s.end.String(),
	}
}

func SlotFromRecord(rec model.SlotRecord) (TimeSlot, error) {
	return ParseTimeSlot(rec.Date, rec.Start, rec.End)
}

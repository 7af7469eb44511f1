package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
// It scans from Postgres TIME columns and formats back to "HH:MM:SS".
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute on the 24h clock.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(raw, "%d:%d:%d", &hour, &minute, &second); err != nil {
		if _, err := fmt.Sscanf(raw, "%d:%d", &hour, &minute); err != nil {
			return 0, fmt.Errorf("parse time of day %q: %w", raw, err)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return NewTimeOfDay(hour, minute), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Add returns the time of day d later than t.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// MinutesFrom returns the absolute distance between two times of day, in minutes.
func (t TimeOfDay) MinutesFrom(other TimeOfDay) int {
	diff := int(t) - int(other)
	if diff < 0 {
		diff = -diff
	}
	return diff
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute())
}

// Scan implements sql.Scanner for TIME columns.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
		return nil
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case int64:
		*t = TimeOfDay(v)
		return nil
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// TimeOfWeek bundles the span of time that a slot or break covers.
// StartsAt is strictly before EndsAt.
type TimeOfWeek struct {
	Day      Day
	StartsAt TimeOfDay
	EndsAt   TimeOfDay
}

// NewTimeOfWeek validates the starts-before-ends invariant.
func NewTimeOfWeek(day Day, startsAt, endsAt TimeOfDay) (TimeOfWeek, error) {
	if startsAt >= endsAt {
		return TimeOfWeek{}, fmt.Errorf("time of week must start before it ends, got %s-%s", startsAt, endsAt)
	}
	return TimeOfWeek{Day: day, StartsAt: startsAt, EndsAt: endsAt}, nil
}

// Overlaps reports whether two spans share any time. Touching boundaries
// (one ends exactly when the other starts) do not overlap.
func (t TimeOfWeek) Overlaps(other TimeOfWeek) bool {
	if t.Day != other.Day {
		return false
	}
	return t.StartsAt < other.EndsAt && other.StartsAt < t.EndsAt
}

func (t TimeOfWeek) String() string {
	return fmt.Sprintf("%s %s-%s", t.Day, t.StartsAt, t.EndsAt)
}

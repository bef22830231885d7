package listing

import (
	"encoding/json"
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

// Day is a calendar day in UTC. Snapshot windows and explicit date filters
// operate on whole days, never on clock times.
type Day struct {
	t time.Time
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return Day{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses an ISO date (YYYY-MM-DD).
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day{t: t}, nil
}

// AddDays returns the day shifted by n calendar days (n may be negative).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is before other.
func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

// After reports whether d is after other.
func (d Day) After(other Day) bool {
	return d.t.After(other.t)
}

// Equal reports whether d and other are the same day.
func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

// Sub returns the number of whole days from other to d.
func (d Day) Sub(other Day) int {
	return int(d.t.Sub(other.t) / (24 * time.Hour))
}

// IsZero reports whether d is the zero day.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the day as a UTC midnight timestamp.
func (d Day) Time() time.Time {
	return d.t
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.t.Format(dayFormat)
}

// MarshalJSON encodes the day as an ISO date string.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes an ISO date string.
func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

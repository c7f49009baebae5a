package types

import (
	"fmt"
	"time"
)

// Unit identifies the temperature unit requested by an API caller.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// Valid reports whether the unit is one of the supported values.
func (u Unit) Valid() bool {
	return u == UnitMetric || u == UnitImperial
}

// City is the identity entity for a tracked location. The id is assigned by
// the database on creation and stable for the row's lifetime; the name is
// case-sensitive and unique across all cities.
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Observation is one temperature sample for one city on one calendar date.
// Celsius is the unit of record; Fahrenheit is derived at write time and
// stored redundantly. Once written, the Fahrenheit column is authoritative
// for imperial reads -- it is never recomputed from Celsius.
type Observation struct {
	ID           int64     `json:"id"`
	CityID       int64     `json:"city_id"`
	Date         CivilDate `json:"date"`
	TemperatureC float64   `json:"temperature_c"`
	TemperatureF float64   `json:"temperature_f"`
}

// civilDateLayout is the wire and storage format for calendar dates.
const civilDateLayout = "2006-01-02"

// CivilDate is a calendar date with no time component, as stored in the
// observations.date DATE column and exchanged as "YYYY-MM-DD" in JSON.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// CivilDateOf returns the calendar date of t in t's location.
func CivilDateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseCivilDate parses a "YYYY-MM-DD" string into a CivilDate.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(civilDateLayout, s)
	if err != nil {
		return CivilDate{}, err
	}
	return CivilDateOf(t), nil
}

// Time returns the date at midnight UTC, the representation written to and
// read from the DATE column.
func (d CivilDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as "YYYY-MM-DD".
func (d CivilDate) String() string {
	return d.Time().Format(civilDateLayout)
}

// IsZero reports whether the date is the zero value.
func (d CivilDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is strictly earlier than other.
func (d CivilDate) Before(other CivilDate) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d CivilDate) After(other CivilDate) bool {
	return d.Time().After(other.Time())
}

// AddDays returns the date n days after d (n may be negative).
func (d CivilDate) AddDays(n int) CivilDate {
	return CivilDateOf(d.Time().AddDate(0, 0, n))
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" JSON string.
func (d CivilDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" JSON string.
func (d *CivilDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("civil date must be a JSON string, got %s", s)
	}
	parsed, err := ParseCivilDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

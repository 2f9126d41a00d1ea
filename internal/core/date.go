package core

import (
	"strings"
	"time"
)

// Wire formats for stored dates. The legacy store writes dates as
// "dd/mm/yyyy hh:mm"; manual entries may carry a bare "dd/mm/yyyy".
const (
	DateTimeLayout = "02/01/2006 15:04"
	DateLayout     = "02/01/2006"
)

// Date wraps time.Time with the store's legacy wire format.
type Date struct {
	time.Time
}

// Now returns the current wall-clock date truncated to minute precision,
// matching what the wire format can represent.
func Now() Date {
	return Date{Time: time.Now().Truncate(time.Minute)}
}

// NewDate builds a Date from calendar parts.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a stored date string in either wire layout.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateTimeLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the full wire format.
func (d Date) String() string {
	return d.Format(DateTimeLayout)
}

// Month returns the calendar month as an int (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateTimeLayout) + `"`), nil
}

// UnmarshalJSON decodes a stored date leniently: an unparsable value
// becomes the zero Date rather than failing the surrounding document. One
// bad date in a ledger file must never discard the valid records around
// it; reporting already excludes zero-date records and logs them.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		d.Time = time.Time{}
		return nil
	}
	d.Time = parsed.Time
	return nil
}

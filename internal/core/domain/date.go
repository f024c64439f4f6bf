package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. It carries no time or zone, so
// lexical order equals calendar order.
type Date string

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: malformed date %q", ErrInvalidInput, s)
	}
	return Date(t.Format(DateLayout)), nil
}

// Weekday of the day the date names.
func (d Date) Weekday() (time.Weekday, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return 0, fmt.Errorf("%w: malformed date %q", ErrInvalidInput, d)
	}
	return t.Weekday(), nil
}

// Label renders the date with its weekday, e.g. "2024-05-01 Wednesday".
func (d Date) Label() string {
	wd, err := d.Weekday()
	if err != nil {
		return string(d)
	}
	return fmt.Sprintf("%s %s", d, wd)
}

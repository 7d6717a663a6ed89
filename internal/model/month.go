package model

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Month is a calendar month, formatted as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

const monthLayout = "2006-01"

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("parsing month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MustParseMonth is ParseMonth for literals. Panics on bad input.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MonthOf returns the month containing d.
func MonthOf(d civil.Date) Month {
	return Month{Year: d.Year, Month: d.Month}
}

// String returns the YYYY-MM form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// AddMonths returns m shifted by n calendar months.
func (m Month) AddMonths(n int) Month {
	idx := m.index() + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Prev returns the previous calendar month, rolling the year at January.
func (m Month) Prev() Month {
	return m.AddMonths(-1)
}

// MonthsSince returns the number of whole months from start to m.
func (m Month) MonthsSince(start Month) int {
	return m.index() - start.index()
}

// Before reports whether m is strictly before o.
func (m Month) Before(o Month) bool {
	return m.index() < o.index()
}

// FirstDay returns the first date of the month.
func (m Month) FirstDay() civil.Date {
	return civil.Date{Year: m.Year, Month: m.Month, Day: 1}
}

func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

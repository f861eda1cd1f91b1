package core

import (
	"fmt"
	"time"
)

// Period is a calendar month used to select date-bearing entries.
// Month follows time.Month (January = 1).
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: time.Month(month)}
}

// PeriodOf returns the period containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("month %d: %w", int(p.Month), ErrInvalidPeriod)
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("year %d: %w", p.Year, ErrInvalidPeriod)
	}
	return nil
}

// Next returns the period n months later, rolling over year boundaries.
func (p Period) Next(n int) Period {
	idx := p.Year*12 + int(p.Month-1) + n
	return Period{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Start returns midnight UTC of the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports an exact year and month match.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return t.Year() == p.Year && t.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Filter keeps the entries dated inside the period. Entries without a
// parseable date are dropped.
func Filter(entries []Entry, p Period) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		t, ok := e.Time()
		if !ok || !p.Contains(t) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ForPeriod returns the view of kind for a period. Recurring entries are
// returned whole: they apply to every month.
func (l *Ledger) ForPeriod(kind Kind, p Period) []Entry {
	if !kind.Dated() {
		return l.Entries(kind)
	}
	return Filter(l.lists[kind], p)
}

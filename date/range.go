package date

import (
	"fmt"
	"time"
)

// Range is a span of dates, both ends included.
type Range struct{ From, To Date }

// NewRange returns the calendar period p that contains d.
func NewRange(d Date, p Period) Range {
	return Range{From: d.StartOf(p), To: d.EndOf(p)}
}

// FiscalYear returns the twelve months starting on the first day of
// startMonth that contain d.
func FiscalYear(d Date, startMonth time.Month) Range {
	from := New(d.Year(), startMonth, 1)
	if from.After(d) {
		from = New(d.Year()-1, startMonth, 1)
	}
	return Range{From: from, To: from.AddMonths(12).Add(-1)}
}

// Contains reports whether d is within r.
func (r Range) Contains(d Date) bool { return !d.Before(r.From) && !d.After(r.To) }

func (r Range) String() string { return fmt.Sprintf("%s to %s", r.From, r.To) }

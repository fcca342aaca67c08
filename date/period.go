package date

import (
	"fmt"
	"strings"
)

// Period is a calendar period, also the frequency of recurring expenses.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

var periodNames = [...]string{"daily", "weekly", "monthly", "quarterly", "yearly"}

func (p Period) String() string {
	if p < Daily || p > Yearly {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return periodNames[p]
}

// periodNouns are the other names ParsePeriod accepts.
var periodNouns = [...]string{"day", "week", "month", "quarter", "year"}

// ParsePeriod accepts "monthly" as well as "month", in any case.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p := range periodNames {
		if s == periodNames[p] || s == periodNouns[p] {
			return Period(p), nil
		}
	}
	return Daily, fmt.Errorf("unknown period %q", s)
}

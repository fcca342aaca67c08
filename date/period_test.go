package date

import (
	"testing"
	"time"
)

func TestNewRange(t *testing.T) {
	wed := New(2025, time.September, 10)
	testCases := []struct {
		period Period
		want   Range
	}{
		{Daily, Range{wed, wed}},
		{Weekly, Range{New(2025, time.September, 8), New(2025, time.September, 14)}},
		{Monthly, Range{New(2025, time.September, 1), New(2025, time.September, 30)}},
		{Quarterly, Range{New(2025, time.July, 1), New(2025, time.September, 30)}},
		{Yearly, Range{New(2025, time.January, 1), New(2025, time.December, 31)}},
	}
	for _, tc := range testCases {
		t.Run(tc.period.String(), func(t *testing.T) {
			got := NewRange(wed, tc.period)
			if got != tc.want {
				t.Errorf("NewRange(%s, %s) = %v, want %v", wed, tc.period, got, tc.want)
			}
			if !got.Contains(wed) || got.Contains(got.To.Add(1)) || got.Contains(got.From.Add(-1)) {
				t.Errorf("%v does not contain exactly its own days", got)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	testCases := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", Daily, false},
		{"week", Weekly, false},
		{"Monthly", Monthly, false},
		{" quarter ", Quarterly, false},
		{"YEAR", Yearly, false},
		{"fortnight", Daily, true},
		{"", Daily, true},
	}
	for _, tc := range testCases {
		got, err := ParsePeriod(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPeriodString(t *testing.T) {
	if got := Quarterly.String(); got != "quarterly" {
		t.Errorf("Quarterly.String() = %q", got)
	}
	if got := Period(9).String(); got != "Period(9)" {
		t.Errorf("Period(9).String() = %q", got)
	}
}

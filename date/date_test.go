package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestDaysSince(t *testing.T) {
	testCases := []struct {
		name string
		d, x Date
		want int
	}{
		{"same day", New(2025, 3, 1), New(2025, 3, 1), 0},
		{"across february", New(2025, 3, 1), New(2025, 2, 1), 28},
		{"leap year", New(2024, 3, 1), New(2024, 2, 1), 29},
		{"before", New(2025, 1, 1), New(2025, 1, 31), -30},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.d.DaysSince(tc.x); got != tc.want {
				t.Errorf("%v.DaysSince(%v) = %d, want %d", tc.d, tc.x, got, tc.want)
			}
		})
	}
}

func TestFiscalYear(t *testing.T) {
	testCases := []struct {
		name  string
		on    Date
		start time.Month
		want  Range
	}{
		{"calendar", New(2025, 5, 10), time.January, Range{New(2025, 1, 1), New(2025, 12, 31)}},
		{"april after start", New(2025, 5, 10), time.April, Range{New(2025, 4, 1), New(2026, 3, 31)}},
		{"april before start", New(2025, 2, 10), time.April, Range{New(2024, 4, 1), New(2025, 3, 31)}},
		{"first day", New(2025, 7, 1), time.July, Range{New(2025, 7, 1), New(2026, 6, 30)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FiscalYear(tc.on, tc.start); got != tc.want {
				t.Errorf("FiscalYear(%v, %v) = %v, want %v", tc.on, tc.start, got, tc.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("2025-7-1")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if d != New(2025, time.July, 1) {
		t.Errorf("Parse() = %v, want 2025-07-01", d)
	}
	if _, err := Parse("01/07/2025"); err == nil {
		t.Error("Parse(\"01/07/2025\") expected an error")
	}
	opt, err := ParseOptional("")
	if err != nil || opt != nil {
		t.Errorf("ParseOptional(\"\") = %v, %v want nil, nil", opt, err)
	}
}

func TestJSON(t *testing.T) {
	type holder struct {
		On  Date  `json:"on"`
		Due *Date `json:"due"`
	}
	var h holder
	if err := json.Unmarshal([]byte(`{"on":"2025-02-03T10:20:00.000Z","due":null}`), &h); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if h.On != New(2025, 2, 3) {
		t.Errorf("On = %v, want 2025-02-03", h.On)
	}
	if h.Due != nil {
		t.Errorf("Due = %v, want nil", h.Due)
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	if got, want := string(data), `{"on":"2025-02-03","due":null}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestIsZero(t *testing.T) {
	if !(Date{}).IsZero() {
		t.Error("Date{}.IsZero() = false, want true")
	}
	if New(2025, 1, 1).IsZero() {
		t.Error("New(2025, 1, 1).IsZero() = true, want false")
	}
}

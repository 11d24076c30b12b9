package types

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year != 2024 || d.Month != time.February || d.Day != 29 {
		t.Errorf("got %v", d)
	}

	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("expected error for month 13")
	}
	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Error("expected error for non-ISO format")
	}
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2024, time.March, 15)
	b := NewDate(2024, time.March, 16)
	c := NewDate(2024, time.April, 1)
	d := NewDate(2025, time.January, 1)

	if !a.Before(b) || !b.Before(c) || !c.Before(d) {
		t.Error("Before should order across days, months and years")
	}
	if a.Before(a) {
		t.Error("a date is not before itself")
	}
	if !d.After(a) {
		t.Error("After should mirror Before")
	}
}

func TestDateAddDays(t *testing.T) {
	tests := []struct {
		start Date
		days  int
		want  string
	}{
		{NewDate(2024, time.March, 1), 30, "2024-03-31"},
		{NewDate(2024, time.December, 20), 15, "2025-01-04"},
		{NewDate(2024, time.February, 28), 1, "2024-02-29"},
		{NewDate(2023, time.February, 28), 1, "2023-03-01"},
	}

	for _, tt := range tests {
		if got := tt.start.AddDays(tt.days); got.String() != tt.want {
			t.Errorf("%s + %d days = %s, want %s", tt.start, tt.days, got, tt.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}

	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestTimeOfDay(t *testing.T) {
	parsed, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	if parsed.Minutes() != 570 {
		t.Errorf("Minutes() = %d, want 570", parsed.Minutes())
	}

	// Seconds from TIME columns are discarded
	withSeconds, err := ParseTimeOfDay("14:45:00")
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	if withSeconds.String() != "14:45" {
		t.Errorf("String() = %s, want 14:45", withSeconds)
	}

	if _, err := ParseTimeOfDay("half past nine"); err == nil {
		t.Error("expected error for unparseable time")
	}
}

func TestTimeOfDayAddMinutes(t *testing.T) {
	start := NewTimeOfDay(16, 30)
	if got := start.AddMinutes(30); got.String() != "17:00" {
		t.Errorf("16:30 + 30m = %s, want 17:00", got)
	}
	if got := NewTimeOfDay(9, 0).AddMinutes(90); got.String() != "10:30" {
		t.Errorf("09:00 + 90m = %s, want 10:30", got)
	}
}

func TestIDRoundTrip(t *testing.T) {
	id := NewID()
	if id.IsZero() {
		t.Fatal("NewID returned zero value")
	}

	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if parsed != id {
		t.Errorf("parsed %s != original %s", parsed, id)
	}

	if _, err := ParseID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed ID")
	}
}

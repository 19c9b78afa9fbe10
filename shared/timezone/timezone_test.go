package timezone_test

import (
	"testing"
	"time"

	"fleet/shared/timezone"
)

func TestTruncate(t *testing.T) {
	input := time.Date(2026, 8, 23, 17, 42, 13, 999, time.UTC)

	got := timezone.Truncate(input)

	expected := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestParseDate(t *testing.T) {
	got, err := timezone.ParseDate("2026-08-23")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Year() != 2026 || got.Month() != time.August || got.Day() != 23 {
		t.Errorf("unexpected date: %v", got)
	}

	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("expected day granularity, got %v", got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"23-08-2026", "2026/08/23", "2026-13-01", "not a date"} {
		if _, err := timezone.ParseDate(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestFormatDate_RoundTrip(t *testing.T) {
	parsed, err := timezone.ParseDate("2026-02-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := timezone.FormatDate(parsed); got != "2026-02-28" {
		t.Errorf("expected round-trip, got %q", got)
	}
}

func TestToday(t *testing.T) {
	today := timezone.Today()

	if today.Hour() != 0 || today.Minute() != 0 || today.Second() != 0 {
		t.Errorf("expected day granularity, got %v", today)
	}
}

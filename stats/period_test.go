package stats

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRangeForPresets(t *testing.T) {
	now := time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)
	endOfDay := time.Date(2026, time.March, 15, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name   string
		period Period
		start  time.Time
	}{
		{"week is trailing 7 days", PeriodWeek, endOfDay.AddDate(0, 0, -7)},
		{"month is trailing 30 days", PeriodMonth, endOfDay.AddDate(0, 0, -30)},
		{"quarter is trailing 90 days", PeriodQuarter, endOfDay.AddDate(0, 0, -90)},
		{"year starts January 1", PeriodYear, date(2026, time.January, 1)},
		{"unknown preset falls back to year", Period("fortnight"), date(2026, time.January, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := RangeFor(tt.period, now, nil, nil)
			if !rng.Start.Equal(tt.start) {
				t.Errorf("start = %v, want %v", rng.Start, tt.start)
			}
			if !rng.End.Equal(endOfDay) {
				t.Errorf("end = %v, want %v", rng.End, endOfDay)
			}
		})
	}
}

func TestRangeForCustomWidensToFullDays(t *testing.T) {
	now := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	start := time.Date(2026, time.February, 3, 10, 15, 0, 0, time.UTC)
	end := time.Date(2026, time.February, 10, 8, 45, 0, 0, time.UTC)

	rng := RangeFor(PeriodCustom, now, &start, &end)

	if want := date(2026, time.February, 3); !rng.Start.Equal(want) {
		t.Errorf("start = %v, want %v", rng.Start, want)
	}
	if want := time.Date(2026, time.February, 10, 23, 59, 59, 0, time.UTC); !rng.End.Equal(want) {
		t.Errorf("end = %v, want %v", rng.End, want)
	}
}

func TestRangeForCustomMissingDatesFallsBackToYear(t *testing.T) {
	now := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	rng := RangeFor(PeriodCustom, now, nil, nil)
	if want := date(2026, time.January, 1); !rng.Start.Equal(want) {
		t.Errorf("start = %v, want %v", rng.Start, want)
	}
}

func TestBoundsAt(t *testing.T) {
	// Wednesday, mid second quarter.
	now := time.Date(2026, time.May, 13, 16, 20, 0, 0, time.UTC)
	b := boundsAt(now)

	if want := date(2026, time.May, 13); !b.today.Equal(want) {
		t.Errorf("today = %v, want %v", b.today, want)
	}
	if want := date(2026, time.May, 11); !b.week.Equal(want) {
		t.Errorf("week = %v, want Monday %v", b.week, want)
	}
	if want := date(2026, time.May, 1); !b.month.Equal(want) {
		t.Errorf("month = %v, want %v", b.month, want)
	}
	if want := date(2026, time.April, 1); !b.quarter.Equal(want) {
		t.Errorf("quarter = %v, want %v", b.quarter, want)
	}
	if want := date(2026, time.January, 1); !b.year.Equal(want) {
		t.Errorf("year = %v, want %v", b.year, want)
	}
	if !b.earliest().Equal(b.year) {
		t.Errorf("earliest = %v, want year start", b.earliest())
	}
}

func TestBoundsAtSundayWeekStart(t *testing.T) {
	// Sunday maps to the Monday six days earlier, not the next day.
	now := time.Date(2026, time.May, 17, 12, 0, 0, 0, time.UTC)
	b := boundsAt(now)
	if want := date(2026, time.May, 11); !b.week.Equal(want) {
		t.Errorf("week = %v, want %v", b.week, want)
	}
}

func TestBoundsAtQuarterStarts(t *testing.T) {
	tests := []struct {
		month time.Month
		want  time.Month
	}{
		{time.January, time.January},
		{time.March, time.January},
		{time.April, time.April},
		{time.June, time.April},
		{time.July, time.July},
		{time.October, time.October},
		{time.December, time.October},
	}
	for _, tt := range tests {
		b := boundsAt(date(2026, tt.month, 20))
		if b.quarter.Month() != tt.want {
			t.Errorf("quarter start for %v = %v, want %v", tt.month, b.quarter.Month(), tt.want)
		}
	}
}

func TestEarliestCrossesYearInEarlyJanuary(t *testing.T) {
	// Thursday 2026-01-01: the ISO week began Monday 2025-12-29.
	now := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	b := boundsAt(now)
	if want := date(2025, time.December, 29); !b.week.Equal(want) {
		t.Errorf("week = %v, want %v", b.week, want)
	}
	if !b.earliest().Equal(b.week) {
		t.Errorf("earliest = %v, want the week start before January 1", b.earliest())
	}
}

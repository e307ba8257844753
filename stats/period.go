package stats

import "time"

// Period selects one of the dashboard range presets.
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
	PeriodCustom  Period = "custom"
)

// Range is a closed [Start, End] window.
type Range struct {
	Start time.Time
	End   time.Time
}

// RangeFor resolves a preset into a concrete window anchored at now.
// Week, month and quarter are rolling trailing windows (7/30/90 days back
// from end-of-today), not calendar-aligned. Year runs from January 1.
// Custom takes the caller-supplied dates widened to full days. Anything
// else falls back to year.
func RangeFor(period Period, now time.Time, customStart, customEnd *time.Time) Range {
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	switch period {
	case PeriodWeek:
		return Range{Start: endOfDay.AddDate(0, 0, -7), End: endOfDay}
	case PeriodMonth:
		return Range{Start: endOfDay.AddDate(0, 0, -30), End: endOfDay}
	case PeriodQuarter:
		return Range{Start: endOfDay.AddDate(0, 0, -90), End: endOfDay}
	case PeriodCustom:
		if customStart != nil && customEnd != nil {
			return Range{
				Start: startOfDay(*customStart),
				End:   time.Date(customEnd.Year(), customEnd.Month(), customEnd.Day(), 23, 59, 59, 0, customEnd.Location()),
			}
		}
	}

	// "year" and the fallback for anything unrecognized.
	return Range{
		Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
		End:   endOfDay,
	}
}

// periodBounds are the five overlapping window starts for the multi-period
// rollup, all anchored at the same instant.
type periodBounds struct {
	today   time.Time
	week    time.Time
	month   time.Time
	quarter time.Time
	year    time.Time
}

func boundsAt(now time.Time) periodBounds {
	today := startOfDay(now)

	// ISO week: Monday 00:00.
	offset := (int(now.Weekday()) + 6) % 7
	week := today.AddDate(0, 0, -offset)

	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
	quarter := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())

	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	return periodBounds{today: today, week: week, month: month, quarter: quarter, year: year}
}

// earliest returns the oldest boundary, the lower bound for the fact fetch.
// The ISO week can reach into the previous year during the first days of
// January, so this is not always January 1.
func (b periodBounds) earliest() time.Time {
	earliest := b.year
	if b.week.Before(earliest) {
		earliest = b.week
	}
	return earliest
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

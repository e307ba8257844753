package stats

import (
	"sort"
	"time"

	"demandflow/request"
)

// buildMultiPeriod computes the five-window rollup over the given facts,
// grouped by keyFn, with every window anchored at now. All-zero rows are
// dropped, and the returned total is the field-wise sum of the surviving
// rows rather than an independently computed grand total.
func buildMultiPeriod(facts []Fact, now time.Time, keyFn func(Fact) string) ([]MultiPeriodRow, MultiPeriodRow) {
	bounds := boundsAt(now)

	grouped := make(map[string]*MultiPeriodRow)
	order := []string{}

	for _, fact := range facts {
		if fact.CreatedAt.After(now) {
			continue
		}

		key := keyFn(fact)
		row, ok := grouped[key]
		if !ok {
			row = &MultiPeriodRow{Key: key}
			grouped[key] = row
			order = append(order, key)
		}

		completed := fact.Status == request.StatusCompleted

		if inWindow(fact.CreatedAt, bounds.today) {
			row.TodayCount++
			if completed {
				row.TodayHours += fact.WorkHours
			}
		}
		if inWindow(fact.CreatedAt, bounds.week) {
			row.WeekCount++
			if completed {
				row.WeekHours += fact.WorkHours
			}
		}
		if inWindow(fact.CreatedAt, bounds.month) {
			row.MonthCount++
			if completed {
				row.MonthHours += fact.WorkHours
			}
		}
		if inWindow(fact.CreatedAt, bounds.quarter) {
			row.QuarterCount++
			if completed {
				row.QuarterHours += fact.WorkHours
			}
		}
		if inWindow(fact.CreatedAt, bounds.year) {
			row.YearCount++
			if completed {
				row.YearHours += fact.WorkHours
			}
		}
	}

	var total MultiPeriodRow
	rows := make([]MultiPeriodRow, 0, len(order))
	for _, key := range order {
		row := *grouped[key]
		if row.IsZero() {
			continue
		}
		rows = append(rows, row)
		total.add(row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].YearCount != rows[j].YearCount {
			return rows[i].YearCount > rows[j].YearCount
		}
		return rows[i].Key < rows[j].Key
	})

	return rows, total
}

func inWindow(created, start time.Time) bool {
	return !created.Before(start)
}

package stats

import (
	"time"

	"demandflow/request"
)

// The rollup shapes are explicit record types, one per query, so a field
// rename is a compile error rather than a silent missing map key.

// Overview is the dashboard card summary over a creation window.
type Overview struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	TotalHours float64
}

// UserStats is the status breakdown of one user's requests: everything
// they submitted (sales) or everything assigned to them (researcher).
type UserStats struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
}

// ResearcherRollup is one row of the per-researcher rollup, sorted by
// TotalHours descending.
type ResearcherRollup struct {
	ResearcherID   int64
	ResearcherName string
	Total          int
	Completed      int
	TotalHours     float64
}

// TypeRollup is one row of the per-request-type rollup, sorted by Total
// descending.
type TypeRollup struct {
	RequestType string
	Total       int
	Completed   int
	TotalHours  float64
}

// OrgRollup is one row of the per-organization rollup, sorted by Total
// descending.
type OrgRollup struct {
	OrgName    string
	OrgType    string
	Total      int
	Completed  int
	TotalHours float64
}

// DetailOverview is the header of a single-key drill-down.
type DetailOverview struct {
	Total      int
	Completed  int
	TotalHours float64
}

// TypeBreakdown is a secondary grouping by request type inside a drill-down.
type TypeBreakdown struct {
	RequestType string
	Total       int
	Hours       float64
}

// OrgBreakdown is a secondary grouping by organization inside a drill-down.
type OrgBreakdown struct {
	OrgName string
	OrgType string
	Total   int
	Hours   float64
}

// ResearcherBreakdown is a secondary grouping by researcher inside a drill-down.
type ResearcherBreakdown struct {
	ResearcherName string
	Total          int
	Hours          float64
}

// ResearcherDetail is the drill-down for one researcher.
type ResearcherDetail struct {
	Overview DetailOverview
	ByType   []TypeBreakdown
	ByOrg    []OrgBreakdown
}

// OrgDetail is the drill-down for one organization. It is the only detail
// shape that also carries the matching request list, which feeds the export.
type OrgDetail struct {
	Overview     DetailOverview
	ByType       []TypeBreakdown
	ByResearcher []ResearcherBreakdown
	Requests     []request.Request
}

// TypeDetail is the drill-down for one request type.
type TypeDetail struct {
	Overview     DetailOverview
	ByResearcher []ResearcherBreakdown
	ByOrg        []OrgBreakdown
}

// Fact is the per-request projection the multi-period rollup is computed
// from: everything needed to bucket a request by creation instant and to
// attribute its hours once completed.
type Fact struct {
	ResearcherID   int64
	ResearcherName string
	RequestType    string
	Status         request.Status
	WorkHours      float64
	CreatedAt      time.Time
}

// MultiPeriodRow carries the five overlapping window counters for one
// group key (researcher display name or request type). Counts cover
// requests created within the window; hours additionally require the
// request to be completed at the anchor instant.
type MultiPeriodRow struct {
	Key          string
	TodayCount   int
	TodayHours   float64
	WeekCount    int
	WeekHours    float64
	MonthCount   int
	MonthHours   float64
	QuarterCount int
	QuarterHours float64
	YearCount    int
	YearHours    float64
}

// IsZero reports whether every numeric field is zero; such rows are
// suppressed from the dataset and from the total.
func (r MultiPeriodRow) IsZero() bool {
	return r.TodayCount == 0 && r.TodayHours == 0 &&
		r.WeekCount == 0 && r.WeekHours == 0 &&
		r.MonthCount == 0 && r.MonthHours == 0 &&
		r.QuarterCount == 0 && r.QuarterHours == 0 &&
		r.YearCount == 0 && r.YearHours == 0
}

func (r *MultiPeriodRow) add(other MultiPeriodRow) {
	r.TodayCount += other.TodayCount
	r.TodayHours += other.TodayHours
	r.WeekCount += other.WeekCount
	r.WeekHours += other.WeekHours
	r.MonthCount += other.MonthCount
	r.MonthHours += other.MonthHours
	r.QuarterCount += other.QuarterCount
	r.QuarterHours += other.QuarterHours
	r.YearCount += other.YearCount
	r.YearHours += other.YearHours
}

package stats

import (
	"context"
	"testing"
	"time"

	"demandflow/identity"
	"demandflow/request"
)

// userRow is the minimal ownership projection the fake needs to compute
// per-user status counts.
type userRow struct {
	salesID      int64
	researcherID int64
	status       request.Status
}

// fakeRepository computes the rollups in memory from a fact slice so the
// service can be exercised without a database. Only the shapes the tests
// assert on are filled in.
type fakeRepository struct {
	facts      []Fact
	userRows   []userRow
	factsSince time.Time

	detailOverview DetailOverview
	byType         []TypeBreakdown
	byOrg          []OrgBreakdown
	byResearcher   []ResearcherBreakdown
	requests       []request.Request
}

func (f *fakeRepository) Overview(ctx context.Context, rng *Range) (Overview, error) {
	var ov Overview
	for _, fact := range f.facts {
		if rng != nil && (fact.CreatedAt.Before(rng.Start) || fact.CreatedAt.After(rng.End)) {
			continue
		}
		ov.Total++
		ov.TotalHours += fact.WorkHours
		switch fact.Status {
		case request.StatusPending:
			ov.Pending++
		case request.StatusInProgress:
			ov.InProgress++
		case request.StatusCompleted:
			ov.Completed++
		}
	}
	return ov, nil
}

func (f *fakeRepository) UserStats(ctx context.Context, userID int64, role identity.Role) (UserStats, error) {
	var us UserStats
	for _, row := range f.userRows {
		owner := row.researcherID
		if role == identity.RoleSales {
			owner = row.salesID
		}
		if owner != userID {
			continue
		}
		us.Total++
		switch row.status {
		case request.StatusPending:
			us.Pending++
		case request.StatusInProgress:
			us.InProgress++
		case request.StatusCompleted:
			us.Completed++
		}
	}
	return us, nil
}

func (f *fakeRepository) ByResearcher(ctx context.Context, rng *Range) ([]ResearcherRollup, error) {
	return nil, nil
}

func (f *fakeRepository) ByRequestType(ctx context.Context, rng *Range) ([]TypeRollup, error) {
	return nil, nil
}

func (f *fakeRepository) ByOrg(ctx context.Context, rng *Range) ([]OrgRollup, error) {
	return nil, nil
}

func (f *fakeRepository) DetailOverview(ctx context.Context, filter DetailFilter) (DetailOverview, error) {
	return f.detailOverview, nil
}

func (f *fakeRepository) TypeBreakdown(ctx context.Context, filter DetailFilter) ([]TypeBreakdown, error) {
	return f.byType, nil
}

func (f *fakeRepository) OrgBreakdown(ctx context.Context, filter DetailFilter) ([]OrgBreakdown, error) {
	return f.byOrg, nil
}

func (f *fakeRepository) ResearcherBreakdown(ctx context.Context, filter DetailFilter) ([]ResearcherBreakdown, error) {
	return f.byResearcher, nil
}

func (f *fakeRepository) RequestsWithin(ctx context.Context, filter DetailFilter) ([]request.Request, error) {
	return f.requests, nil
}

func (f *fakeRepository) FactsCreatedSince(ctx context.Context, since time.Time) ([]Fact, error) {
	f.factsSince = since
	out := []Fact{}
	for _, fact := range f.facts {
		if !fact.CreatedAt.Before(since) {
			out = append(out, fact)
		}
	}
	return out, nil
}

func TestGetOverviewPartitionsByStatus(t *testing.T) {
	created := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepository{facts: []Fact{
		{Status: request.StatusPending, CreatedAt: created},
		{Status: request.StatusPending, CreatedAt: created},
		{Status: request.StatusInProgress, CreatedAt: created},
		{Status: request.StatusCompleted, WorkHours: 6, CreatedAt: created},
	}}
	svc := NewService(repo)

	ov, err := svc.GetOverview(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetOverview: %v", err)
	}
	if ov.Pending+ov.InProgress+ov.Completed != ov.Total {
		t.Errorf("status counts %d+%d+%d do not partition total %d", ov.Pending, ov.InProgress, ov.Completed, ov.Total)
	}
	if ov.Total != 4 || ov.Pending != 2 || ov.TotalHours != 6 {
		t.Errorf("overview = %+v", ov)
	}
}

func TestGetUserStatsCountsByRoleDimension(t *testing.T) {
	repo := &fakeRepository{userRows: []userRow{
		{salesID: 1, researcherID: 10, status: request.StatusPending},
		{salesID: 1, researcherID: 10, status: request.StatusCompleted},
		{salesID: 1, researcherID: 11, status: request.StatusInProgress},
		{salesID: 2, researcherID: 10, status: request.StatusCompleted},
	}}
	svc := NewService(repo)

	// A sales user is counted by what they submitted.
	sales, err := svc.GetUserStats(context.Background(), 1, identity.RoleSales)
	if err != nil {
		t.Fatalf("GetUserStats sales: %v", err)
	}
	if sales.Total != 3 || sales.Pending != 1 || sales.InProgress != 1 || sales.Completed != 1 {
		t.Errorf("sales stats = %+v, want 3/1/1/1", sales)
	}

	// A researcher is counted by what is assigned to them, so the same
	// rows split differently.
	res, err := svc.GetUserStats(context.Background(), 10, identity.RoleResearcher)
	if err != nil {
		t.Fatalf("GetUserStats researcher: %v", err)
	}
	if res.Total != 3 || res.Pending != 1 || res.InProgress != 0 || res.Completed != 2 {
		t.Errorf("researcher stats = %+v, want 3/1/0/2", res)
	}

	if res.Pending+res.InProgress+res.Completed != res.Total {
		t.Errorf("user stats %+v do not partition by status", res)
	}
}

func TestUserStatsColumn(t *testing.T) {
	if got := userStatsColumn(identity.RoleSales); got != "sales_id" {
		t.Errorf("sales column = %q", got)
	}
	if got := userStatsColumn(identity.RoleResearcher); got != "researcher_id" {
		t.Errorf("researcher column = %q", got)
	}
	if got := userStatsColumn(identity.RoleAdmin); got != "researcher_id" {
		t.Errorf("admin column = %q, want the assignment dimension fallback", got)
	}
}

func TestOverviewReflectsCompletion(t *testing.T) {
	created := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepository{facts: []Fact{
		{Status: request.StatusPending, CreatedAt: created},
		{Status: request.StatusInProgress, CreatedAt: created},
	}}
	svc := NewService(repo)

	before, err := svc.GetOverview(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetOverview before: %v", err)
	}

	repo.facts[0].Status = request.StatusCompleted
	repo.facts[0].WorkHours = 3.5

	after, err := svc.GetOverview(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetOverview after: %v", err)
	}
	if after.Completed != before.Completed+1 {
		t.Errorf("completed count %d -> %d, want +1", before.Completed, after.Completed)
	}
	if after.TotalHours != before.TotalHours+3.5 {
		t.Errorf("total hours %v -> %v, want +3.5", before.TotalHours, after.TotalHours)
	}
	if after.Total != before.Total {
		t.Errorf("total changed %d -> %d on a status flip", before.Total, after.Total)
	}
}

func TestResolveRange(t *testing.T) {
	svc := NewService(&fakeRepository{}).WithClock(func() time.Time {
		return time.Date(2026, time.May, 13, 15, 0, 0, 0, time.UTC)
	})

	if rng := svc.ResolveRange("", nil, nil); rng != nil {
		t.Errorf("empty period should mean no window, got %+v", rng)
	}

	rng := svc.ResolveRange(PeriodWeek, nil, nil)
	if rng == nil {
		t.Fatal("week preset returned nil range")
	}
	if want := time.Date(2026, time.May, 6, 23, 59, 59, 0, time.UTC); !rng.Start.Equal(want) {
		t.Errorf("week start = %v, want %v", rng.Start, want)
	}
}

func TestGetOrgDetailAssemblesAllParts(t *testing.T) {
	repo := &fakeRepository{
		detailOverview: DetailOverview{Total: 3, Completed: 2, TotalHours: 11},
		byType:         []TypeBreakdown{{RequestType: "调研", Total: 2, Hours: 8}},
		byResearcher:   []ResearcherBreakdown{{ResearcherName: "王研究", Total: 3, Hours: 11}},
		requests:       []request.Request{{ID: 7, Title: "行业对比"}},
	}
	svc := NewService(repo)

	detail, err := svc.GetOrgDetail(context.Background(), "华信基金", nil)
	if err != nil {
		t.Fatalf("GetOrgDetail: %v", err)
	}
	if detail.Overview.Total != 3 {
		t.Errorf("overview total = %d, want 3", detail.Overview.Total)
	}
	if len(detail.ByType) != 1 || len(detail.ByResearcher) != 1 {
		t.Errorf("breakdowns = %d types, %d researchers", len(detail.ByType), len(detail.ByResearcher))
	}
	if len(detail.Requests) != 1 || detail.Requests[0].ID != 7 {
		t.Errorf("requests = %+v", detail.Requests)
	}
}

func TestMultiPeriodUsesInjectedClock(t *testing.T) {
	now := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepository{facts: []Fact{
		// Created in the ISO week that started in December 2025.
		{ResearcherName: "王研究", RequestType: "调研", Status: request.StatusCompleted, WorkHours: 3, CreatedAt: time.Date(2025, time.December, 30, 9, 0, 0, 0, time.UTC)},
		{ResearcherName: "王研究", RequestType: "调研", Status: request.StatusPending, CreatedAt: now.Add(-time.Hour)},
	}}
	svc := NewService(repo).WithClock(func() time.Time { return now })

	rows, total, err := svc.GetMultiPeriodByResearcher(context.Background())
	if err != nil {
		t.Fatalf("GetMultiPeriodByResearcher: %v", err)
	}

	// The fetch must reach back past January 1 to cover the week window.
	if want := time.Date(2025, time.December, 29, 0, 0, 0, 0, time.UTC); !repo.factsSince.Equal(want) {
		t.Errorf("facts fetched since %v, want %v", repo.factsSince, want)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	// December request counts for the week but not the year.
	if row.WeekCount != 2 || row.YearCount != 1 {
		t.Errorf("week/year counts = %d/%d, want 2/1", row.WeekCount, row.YearCount)
	}
	if row.WeekHours != 3 || row.YearHours != 0 {
		t.Errorf("week/year hours = %v/%v, want 3/0", row.WeekHours, row.YearHours)
	}
	if total.WeekCount != 2 {
		t.Errorf("total week count = %d, want 2", total.WeekCount)
	}
}

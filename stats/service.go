package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"demandflow/identity"
)

// Service exposes the aggregation views. The clock is injectable so the
// multi-period rollup can be pinned in tests.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a stats service over the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the anchor clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ResolveRange turns a preset name into a concrete window anchored at the
// service clock. An empty period means no window at all.
func (s *Service) ResolveRange(period Period, customStart, customEnd *time.Time) *Range {
	if period == "" {
		return nil
	}
	rng := RangeFor(period, s.now(), customStart, customEnd)
	return &rng
}

// GetOverview returns the status counts and hour sum for the window.
func (s *Service) GetOverview(ctx context.Context, rng *Range) (Overview, error) {
	return s.repo.Overview(ctx, rng)
}

// GetUserStats returns one user's requests counted by status: submissions
// for a sales user, assignments for anyone else.
func (s *Service) GetUserStats(ctx context.Context, userID int64, role identity.Role) (UserStats, error) {
	return s.repo.UserStats(ctx, userID, role)
}

// GetByResearcher returns the per-researcher rollup for the window.
func (s *Service) GetByResearcher(ctx context.Context, rng *Range) ([]ResearcherRollup, error) {
	return s.repo.ByResearcher(ctx, rng)
}

// GetByRequestType returns the per-type rollup for the window.
func (s *Service) GetByRequestType(ctx context.Context, rng *Range) ([]TypeRollup, error) {
	return s.repo.ByRequestType(ctx, rng)
}

// GetByOrg returns the per-organization rollup for the window.
func (s *Service) GetByOrg(ctx context.Context, rng *Range) ([]OrgRollup, error) {
	return s.repo.ByOrg(ctx, rng)
}

// GetResearcherDetail assembles the drill-down for one researcher. The
// three sub-queries are independent, so they run concurrently.
func (s *Service) GetResearcherDetail(ctx context.Context, researcherID int64, rng *Range) (ResearcherDetail, error) {
	filter := DetailFilter{ResearcherID: researcherID, Range: rng}

	var detail ResearcherDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov, err := s.repo.DetailOverview(gctx, filter)
		detail.Overview = ov
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.TypeBreakdown(gctx, filter)
		detail.ByType = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.OrgBreakdown(gctx, filter)
		detail.ByOrg = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return ResearcherDetail{}, fmt.Errorf("stats: researcher detail: %w", err)
	}
	return detail, nil
}

// GetOrgDetail assembles the drill-down for one organization, including
// the matching request list.
func (s *Service) GetOrgDetail(ctx context.Context, orgName string, rng *Range) (OrgDetail, error) {
	filter := DetailFilter{OrgName: orgName, Range: rng}

	var detail OrgDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov, err := s.repo.DetailOverview(gctx, filter)
		detail.Overview = ov
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.TypeBreakdown(gctx, filter)
		detail.ByType = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.ResearcherBreakdown(gctx, filter)
		detail.ByResearcher = rows
		return err
	})
	g.Go(func() error {
		reqs, err := s.repo.RequestsWithin(gctx, filter)
		detail.Requests = reqs
		return err
	})
	if err := g.Wait(); err != nil {
		return OrgDetail{}, fmt.Errorf("stats: org detail: %w", err)
	}
	return detail, nil
}

// GetRequestTypeDetail assembles the drill-down for one request type.
func (s *Service) GetRequestTypeDetail(ctx context.Context, requestType string, rng *Range) (TypeDetail, error) {
	filter := DetailFilter{RequestType: requestType, Range: rng}

	var detail TypeDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov, err := s.repo.DetailOverview(gctx, filter)
		detail.Overview = ov
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.ResearcherBreakdown(gctx, filter)
		detail.ByResearcher = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.OrgBreakdown(gctx, filter)
		detail.ByOrg = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return TypeDetail{}, fmt.Errorf("stats: request type detail: %w", err)
	}
	return detail, nil
}

// GetMultiPeriodByResearcher computes the five-window rollup keyed by
// researcher display name.
func (s *Service) GetMultiPeriodByResearcher(ctx context.Context) ([]MultiPeriodRow, MultiPeriodRow, error) {
	return s.multiPeriod(ctx, func(f Fact) string { return f.ResearcherName })
}

// GetMultiPeriodByRequestType computes the five-window rollup keyed by
// request type.
func (s *Service) GetMultiPeriodByRequestType(ctx context.Context) ([]MultiPeriodRow, MultiPeriodRow, error) {
	return s.multiPeriod(ctx, func(f Fact) string { return f.RequestType })
}

func (s *Service) multiPeriod(ctx context.Context, keyFn func(Fact) string) ([]MultiPeriodRow, MultiPeriodRow, error) {
	now := s.now()
	facts, err := s.repo.FactsCreatedSince(ctx, boundsAt(now).earliest())
	if err != nil {
		return nil, MultiPeriodRow{}, fmt.Errorf("stats: multi-period: %w", err)
	}
	rows, total := buildMultiPeriod(facts, now, keyFn)
	return rows, total, nil
}

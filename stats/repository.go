package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"demandflow/identity"
	"demandflow/request"
)

// Repository runs the aggregation queries. The overview windows on
// created_at while every grouped query windows on completed_at; the
// dashboards depend on that asymmetry, so both column choices are fixed
// here and nowhere else.
type Repository interface {
	Overview(ctx context.Context, rng *Range) (Overview, error)
	UserStats(ctx context.Context, userID int64, role identity.Role) (UserStats, error)
	ByResearcher(ctx context.Context, rng *Range) ([]ResearcherRollup, error)
	ByRequestType(ctx context.Context, rng *Range) ([]TypeRollup, error)
	ByOrg(ctx context.Context, rng *Range) ([]OrgRollup, error)
	DetailOverview(ctx context.Context, filter DetailFilter) (DetailOverview, error)
	TypeBreakdown(ctx context.Context, filter DetailFilter) ([]TypeBreakdown, error)
	OrgBreakdown(ctx context.Context, filter DetailFilter) ([]OrgBreakdown, error)
	ResearcherBreakdown(ctx context.Context, filter DetailFilter) ([]ResearcherBreakdown, error)
	RequestsWithin(ctx context.Context, filter DetailFilter) ([]request.Request, error)
	FactsCreatedSince(ctx context.Context, since time.Time) ([]Fact, error)
}

// DetailFilter selects a single group key for a drill-down. Exactly one of
// ResearcherID, OrgName or RequestType is set; a non-nil Range windows on
// completed_at.
type DetailFilter struct {
	ResearcherID int64
	OrgName      string
	RequestType  string
	Range        *Range
}

func (f DetailFilter) clauses() ([]string, []any) {
	where := []string{}
	args := []any{}
	if f.ResearcherID != 0 {
		where = append(where, fmt.Sprintf("r.researcher_id = $%d", len(args)+1))
		args = append(args, f.ResearcherID)
	}
	if f.OrgName != "" {
		where = append(where, fmt.Sprintf("r.org_name = $%d", len(args)+1))
		args = append(args, f.OrgName)
	}
	if f.RequestType != "" {
		where = append(where, fmt.Sprintf("r.request_type = $%d", len(args)+1))
		args = append(args, f.RequestType)
	}
	if f.Range != nil {
		where = append(where, fmt.Sprintf("r.completed_at >= $%d AND r.completed_at <= $%d", len(args)+1, len(args)+2))
		args = append(args, f.Range.Start, f.Range.End)
	}
	return where, args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed stats repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Overview counts requests by status and sums work hours across every
// request in the creation window, completed or not.
func (r *PGRepository) Overview(ctx context.Context, rng *Range) (Overview, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		       COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress,
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		       COALESCE(SUM(work_hours), 0) AS total_hours
		FROM requests
	`
	args := []any{}
	if rng != nil {
		query += ` WHERE created_at >= $1 AND created_at <= $2`
		args = append(args, rng.Start, rng.End)
	}

	var ov Overview
	err := r.pool.QueryRow(ctx, query, args...).Scan(&ov.Total, &ov.Pending, &ov.InProgress, &ov.Completed, &ov.TotalHours)
	if err != nil {
		return Overview{}, fmt.Errorf("stats: overview: %w", err)
	}
	return ov, nil
}

// userStatsColumn picks the ownership column for one user's breakdown:
// sales users are counted by what they submitted, everyone else by what
// is assigned to them.
func userStatsColumn(role identity.Role) string {
	if role == identity.RoleSales {
		return "sales_id"
	}
	return "researcher_id"
}

// UserStats counts one user's requests by status across all time.
func (r *PGRepository) UserStats(ctx context.Context, userID int64, role identity.Role) (UserStats, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		       COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress,
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed
		FROM requests
		WHERE %s = $1
	`, userStatsColumn(role))

	var us UserStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(&us.Total, &us.Pending, &us.InProgress, &us.Completed)
	if err != nil {
		return UserStats{}, fmt.Errorf("stats: user stats: %w", err)
	}
	return us, nil
}

// ByResearcher groups the completion window by assignee, heaviest hours first.
func (r *PGRepository) ByResearcher(ctx context.Context, rng *Range) ([]ResearcherRollup, error) {
	query := `
		SELECT u.id,
		       u.display_name,
		       COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN r.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		       COALESCE(SUM(r.work_hours), 0) AS total_hours
		FROM requests r
		JOIN users u ON r.researcher_id = u.id
	`
	args := []any{}
	if rng != nil {
		query += ` WHERE r.completed_at >= $1 AND r.completed_at <= $2`
		args = append(args, rng.Start, rng.End)
	}
	query += `
		GROUP BY u.id, u.display_name
		ORDER BY total_hours DESC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: by researcher: %w", err)
	}
	defer rows.Close()

	out := []ResearcherRollup{}
	for rows.Next() {
		var row ResearcherRollup
		if err := rows.Scan(&row.ResearcherID, &row.ResearcherName, &row.Total, &row.Completed, &row.TotalHours); err != nil {
			return nil, fmt.Errorf("stats: scan researcher rollup: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate researcher rollup: %w", err)
	}
	return out, nil
}

// ByRequestType groups the completion window by request type, most requests first.
func (r *PGRepository) ByRequestType(ctx context.Context, rng *Range) ([]TypeRollup, error) {
	query := `
		SELECT request_type,
		       COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		       COALESCE(SUM(work_hours), 0) AS total_hours
		FROM requests
	`
	args := []any{}
	if rng != nil {
		query += ` WHERE completed_at >= $1 AND completed_at <= $2`
		args = append(args, rng.Start, rng.End)
	}
	query += `
		GROUP BY request_type
		ORDER BY total DESC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: by request type: %w", err)
	}
	defer rows.Close()

	out := []TypeRollup{}
	for rows.Next() {
		var row TypeRollup
		if err := rows.Scan(&row.RequestType, &row.Total, &row.Completed, &row.TotalHours); err != nil {
			return nil, fmt.Errorf("stats: scan type rollup: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate type rollup: %w", err)
	}
	return out, nil
}

// ByOrg groups the completion window by organization, most requests first.
func (r *PGRepository) ByOrg(ctx context.Context, rng *Range) ([]OrgRollup, error) {
	query := `
		SELECT org_name,
		       MIN(org_type) AS org_type,
		       COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		       COALESCE(SUM(work_hours), 0) AS total_hours
		FROM requests
	`
	args := []any{}
	if rng != nil {
		query += ` WHERE completed_at >= $1 AND completed_at <= $2`
		args = append(args, rng.Start, rng.End)
	}
	query += `
		GROUP BY org_name
		ORDER BY total DESC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: by org: %w", err)
	}
	defer rows.Close()

	out := []OrgRollup{}
	for rows.Next() {
		var row OrgRollup
		if err := rows.Scan(&row.OrgName, &row.OrgType, &row.Total, &row.Completed, &row.TotalHours); err != nil {
			return nil, fmt.Errorf("stats: scan org rollup: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate org rollup: %w", err)
	}
	return out, nil
}

// DetailOverview is the header query of a drill-down.
func (r *PGRepository) DetailOverview(ctx context.Context, filter DetailFilter) (DetailOverview, error) {
	where, args := filter.clauses()
	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN r.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		       COALESCE(SUM(r.work_hours), 0) AS total_hours
		FROM requests r
	` + whereClause(where)

	var ov DetailOverview
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&ov.Total, &ov.Completed, &ov.TotalHours); err != nil {
		return DetailOverview{}, fmt.Errorf("stats: detail overview: %w", err)
	}
	return ov, nil
}

// TypeBreakdown groups a drill-down by request type.
func (r *PGRepository) TypeBreakdown(ctx context.Context, filter DetailFilter) ([]TypeBreakdown, error) {
	where, args := filter.clauses()
	query := `
		SELECT r.request_type,
		       COUNT(*) AS total,
		       COALESCE(SUM(r.work_hours), 0) AS hours
		FROM requests r
	` + whereClause(where) + `
		GROUP BY r.request_type
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: type breakdown: %w", err)
	}
	defer rows.Close()

	out := []TypeBreakdown{}
	for rows.Next() {
		var row TypeBreakdown
		if err := rows.Scan(&row.RequestType, &row.Total, &row.Hours); err != nil {
			return nil, fmt.Errorf("stats: scan type breakdown: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate type breakdown: %w", err)
	}
	return out, nil
}

// OrgBreakdown groups a drill-down by organization.
func (r *PGRepository) OrgBreakdown(ctx context.Context, filter DetailFilter) ([]OrgBreakdown, error) {
	where, args := filter.clauses()
	query := `
		SELECT r.org_name,
		       MIN(r.org_type) AS org_type,
		       COUNT(*) AS total,
		       COALESCE(SUM(r.work_hours), 0) AS hours
		FROM requests r
	` + whereClause(where) + `
		GROUP BY r.org_name
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: org breakdown: %w", err)
	}
	defer rows.Close()

	out := []OrgBreakdown{}
	for rows.Next() {
		var row OrgBreakdown
		if err := rows.Scan(&row.OrgName, &row.OrgType, &row.Total, &row.Hours); err != nil {
			return nil, fmt.Errorf("stats: scan org breakdown: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate org breakdown: %w", err)
	}
	return out, nil
}

// ResearcherBreakdown groups a drill-down by assignee.
func (r *PGRepository) ResearcherBreakdown(ctx context.Context, filter DetailFilter) ([]ResearcherBreakdown, error) {
	where, args := filter.clauses()
	query := `
		SELECT u.display_name,
		       COUNT(*) AS total,
		       COALESCE(SUM(r.work_hours), 0) AS hours
		FROM requests r
		JOIN users u ON r.researcher_id = u.id
	` + whereClause(where) + `
		GROUP BY r.researcher_id, u.display_name
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: researcher breakdown: %w", err)
	}
	defer rows.Close()

	out := []ResearcherBreakdown{}
	for rows.Next() {
		var row ResearcherBreakdown
		if err := rows.Scan(&row.ResearcherName, &row.Total, &row.Hours); err != nil {
			return nil, fmt.Errorf("stats: scan researcher breakdown: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate researcher breakdown: %w", err)
	}
	return out, nil
}

// RequestsWithin returns the fully joined request rows matching a
// drill-down filter, newest first.
func (r *PGRepository) RequestsWithin(ctx context.Context, filter DetailFilter) ([]request.Request, error) {
	where, args := filter.clauses()
	query := `
		SELECT r.id, r.title, r.description, r.request_type, r.research_scope,
		       r.org_name, r.org_type, r.sales_id, r.researcher_id,
		       r.is_confidential, r.status, r.result_note, r.attachment_path,
		       r.work_hours, r.created_at, r.updated_at, r.completed_at,
		       s.display_name AS sales_name,
		       s.username AS sales_username,
		       res.display_name AS researcher_name
		FROM requests r
		JOIN users s ON r.sales_id = s.id
		JOIN users res ON r.researcher_id = res.id
	` + whereClause(where) + `
		ORDER BY r.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats: requests within: %w", err)
	}
	defer rows.Close()

	out := []request.Request{}
	for rows.Next() {
		var req request.Request
		err := rows.Scan(
			&req.ID, &req.Title, &req.Description, &req.RequestType, &req.ResearchScope,
			&req.OrgName, &req.OrgType, &req.SalesID, &req.ResearcherID,
			&req.IsConfidential, &req.Status, &req.ResultNote, &req.AttachmentPath,
			&req.WorkHours, &req.CreatedAt, &req.UpdatedAt, &req.CompletedAt,
			&req.SalesName, &req.SalesUsername, &req.ResearcherName,
		)
		if err != nil {
			return nil, fmt.Errorf("stats: scan request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate requests: %w", err)
	}
	return out, nil
}

// FactsCreatedSince fetches the projection rows the multi-period rollup is
// computed from.
func (r *PGRepository) FactsCreatedSince(ctx context.Context, since time.Time) ([]Fact, error) {
	const query = `
		SELECT r.researcher_id,
		       u.display_name,
		       r.request_type,
		       r.status,
		       r.work_hours,
		       r.created_at
		FROM requests r
		JOIN users u ON r.researcher_id = u.id
		WHERE r.created_at >= $1
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("stats: facts created since: %w", err)
	}
	defer rows.Close()

	out := []Fact{}
	for rows.Next() {
		var fact Fact
		if err := rows.Scan(&fact.ResearcherID, &fact.ResearcherName, &fact.RequestType, &fact.Status, &fact.WorkHours, &fact.CreatedAt); err != nil {
			return nil, fmt.Errorf("stats: scan fact: %w", err)
		}
		out = append(out, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate facts: %w", err)
	}
	return out, nil
}

package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"demandflow/identity"
)

var (
	// ErrNotFound signals that the request does not exist.
	ErrNotFound = errors.New("request: not found")
)

// Repository handles data access for work requests.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Request, error)
	GetByID(ctx context.Context, id int64) (Request, error)
	ListBySales(ctx context.Context, salesID int64) ([]Request, error)
	ListByResearcher(ctx context.Context, researcherID int64) ([]Request, error)
	ListAll(ctx context.Context) ([]Request, error)
	ListVisibleFor(ctx context.Context, actor identity.User) ([]Request, error)
	ListPublic(ctx context.Context) ([]Request, error)
	UpdateStatus(ctx context.Context, id int64, params StatusUpdate) (Request, error)
	Reassign(ctx context.Context, id int64, researcherID int64) error
	SetConfidential(ctx context.Context, id int64, confidential bool) error
	CountTodayPending(ctx context.Context, researcherID int64) (int, error)
}

// CreateParams contains the fields supplied on submission.
type CreateParams struct {
	Title          string
	Description    string
	RequestType    string
	ResearchScope  string
	OrgName        string
	OrgType        string
	SalesID        int64
	ResearcherID   int64
	IsConfidential bool
}

// StatusUpdate carries the fields written on a workflow update. ResultNote
// and AttachmentPath overwrite the stored values on every call, nil included.
type StatusUpdate struct {
	Status         Status
	ResultNote     *string
	AttachmentPath *string
	WorkHours      float64
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed request repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// joinedSelect is the shared read shape: every listing joins the sales and
// researcher accounts for their display names, newest first.
const joinedSelect = `
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
`

// Create inserts a new request in pending state with zero work hours.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Request, error) {
	const insertSQL = `
		INSERT INTO requests (title, description, request_type, research_scope,
		                      org_name, org_type, sales_id, researcher_id, is_confidential)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, insertSQL,
		params.Title,
		params.Description,
		params.RequestType,
		params.ResearchScope,
		params.OrgName,
		params.OrgType,
		params.SalesID,
		params.ResearcherID,
		params.IsConfidential,
	).Scan(&id)
	if err != nil {
		return Request{}, fmt.Errorf("request: insert: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves one request with joined actor names.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, joinedSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("request: get by id: %w", err)
	}
	return req, nil
}

// ListBySales returns the requests a sales user submitted.
func (r *PGRepository) ListBySales(ctx context.Context, salesID int64) ([]Request, error) {
	return r.list(ctx, joinedSelect+` WHERE r.sales_id = $1 ORDER BY r.created_at DESC`, salesID)
}

// ListByResearcher returns the requests assigned to a researcher.
func (r *PGRepository) ListByResearcher(ctx context.Context, researcherID int64) ([]Request, error) {
	return r.list(ctx, joinedSelect+` WHERE r.researcher_id = $1 ORDER BY r.created_at DESC`, researcherID)
}

// ListAll returns every request, newest first.
func (r *PGRepository) ListAll(ctx context.Context) ([]Request, error) {
	return r.list(ctx, joinedSelect+` ORDER BY r.created_at DESC`)
}

// ListVisibleFor applies the visibility policy as a query predicate: admins
// get everything, everyone else gets non-confidential requests plus their
// own submissions and assignments.
func (r *PGRepository) ListVisibleFor(ctx context.Context, actor identity.User) ([]Request, error) {
	if actor.Role == identity.RoleAdmin {
		return r.ListAll(ctx)
	}

	query := joinedSelect + `
		WHERE (r.is_confidential = FALSE OR r.sales_id = $1 OR r.researcher_id = $1)
		ORDER BY r.created_at DESC`
	return r.list(ctx, query, actor.ID)
}

// ListPublic returns all non-confidential requests.
func (r *PGRepository) ListPublic(ctx context.Context) ([]Request, error) {
	return r.list(ctx, joinedSelect+` WHERE r.is_confidential = FALSE ORDER BY r.created_at DESC`)
}

// UpdateStatus writes a workflow update. updated_at always moves to now;
// completed_at is stamped only when the new status is completed and keeps
// its previous value when the request is reopened.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, params StatusUpdate) (Request, error) {
	const updateSQL = `
		UPDATE requests
		SET status = $2,
		    result_note = $3,
		    attachment_path = $4,
		    work_hours = $5,
		    updated_at = now(),
		    completed_at = CASE WHEN $2 = 'completed' THEN now() ELSE completed_at END
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, updateSQL, id, params.Status, params.ResultNote, params.AttachmentPath, params.WorkHours)
	if err != nil {
		return Request{}, fmt.Errorf("request: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Request{}, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Reassign moves the request to another researcher and bumps updated_at.
func (r *PGRepository) Reassign(ctx context.Context, id int64, researcherID int64) error {
	const updateSQL = `
		UPDATE requests
		SET researcher_id = $2,
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, updateSQL, id, researcherID)
	if err != nil {
		return fmt.Errorf("request: reassign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetConfidential flips the confidentiality flag and bumps updated_at.
func (r *PGRepository) SetConfidential(ctx context.Context, id int64, confidential bool) error {
	const updateSQL = `
		UPDATE requests
		SET is_confidential = $2,
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, updateSQL, id, confidential)
	if err != nil {
		return fmt.Errorf("request: set confidential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountTodayPending counts the researcher's unfinished requests created
// today, the input to the overload check on assignment.
func (r *PGRepository) CountTodayPending(ctx context.Context, researcherID int64) (int, error) {
	const countSQL = `
		SELECT COUNT(*)
		FROM requests
		WHERE researcher_id = $1
		  AND status IN ('pending', 'in_progress')
		  AND created_at::date = now()::date
	`

	var count int
	if err := r.pool.QueryRow(ctx, countSQL, researcherID).Scan(&count); err != nil {
		return 0, fmt.Errorf("request: count today pending: %w", err)
	}
	return count, nil
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("request: query list: %w", err)
	}
	defer rows.Close()

	list := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("request: scan: %w", err)
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("request: iterate: %w", err)
	}
	return list, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&req.RequestType,
		&req.ResearchScope,
		&req.OrgName,
		&req.OrgType,
		&req.SalesID,
		&req.ResearcherID,
		&req.IsConfidential,
		&req.Status,
		&req.ResultNote,
		&req.AttachmentPath,
		&req.WorkHours,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.CompletedAt,
		&req.SalesName,
		&req.SalesUsername,
		&req.ResearcherName,
	)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

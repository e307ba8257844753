package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"demandflow/identity"
)

var (
	// ErrForbidden signals the actor may not perform the operation.
	ErrForbidden = errors.New("request: forbidden")
	// ErrInvalidStatus signals an unknown workflow status.
	ErrInvalidStatus = errors.New("request: invalid status")
	// ErrNegativeHours signals a negative work hours value. There is no
	// upper bound at this layer; any non-negative value is accepted.
	ErrNegativeHours = errors.New("request: work hours must be non-negative")
)

// overloadThreshold is the number of same-day unfinished assignments at
// which a researcher counts as overloaded.
const overloadThreshold = 5

// UserDirectory is the slice of the identity service the request engine
// needs for role checks on creation and reassignment.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*identity.User, error)
}

// Service wires the repository, the visibility policy and attachment
// storage into the workflow operations exposed to the presentation layer.
type Service struct {
	repo      Repository
	users     UserDirectory
	uploadDir string
}

// NewService creates a request service. uploadDir is where attachment
// files are written; it is created lazily on first upload.
func NewService(repo Repository, users UserDirectory, uploadDir string) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		uploadDir: uploadDir,
	}
}

// SubmitParams contains the submission fields. Request type and research
// scope arrive as tagged categories; the composite display string is only
// produced at the storage boundary.
type SubmitParams struct {
	Title          string
	Description    string
	RequestType    Category
	ResearchScope  Category
	OrgName        string
	OrgType        string
	SalesID        int64
	ResearcherID   int64
	IsConfidential bool
}

// Create validates and stores a new request. The submitting user must hold
// the sales role and the assignee the researcher role, so a request can
// never be created with orphaned or mistyped actor references.
func (s *Service) Create(ctx context.Context, params SubmitParams) (Request, error) {
	if strings.TrimSpace(params.Title) == "" {
		return Request{}, fmt.Errorf("request: title is required")
	}

	sales, err := s.users.GetUserByID(ctx, params.SalesID)
	if err != nil {
		return Request{}, fmt.Errorf("request: resolve sales user: %w", err)
	}
	if sales.Role != identity.RoleSales {
		return Request{}, fmt.Errorf("request: user %d is not a sales user", params.SalesID)
	}

	if err := s.ensureResearcher(ctx, params.ResearcherID); err != nil {
		return Request{}, err
	}

	return s.repo.Create(ctx, CreateParams{
		Title:          strings.TrimSpace(params.Title),
		Description:    strings.TrimSpace(params.Description),
		RequestType:    params.RequestType.Format(),
		ResearchScope:  params.ResearchScope.Format(),
		OrgName:        params.OrgName,
		OrgType:        params.OrgType,
		SalesID:        params.SalesID,
		ResearcherID:   params.ResearcherID,
		IsConfidential: params.IsConfidential,
	})
}

// GetByID returns one request if the actor may see it.
func (s *Service) GetByID(ctx context.Context, actor identity.User, id int64) (Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !Visible(actor, req) {
		return Request{}, ErrForbidden
	}
	return req, nil
}

// ListBySales returns the requests a sales user submitted.
func (s *Service) ListBySales(ctx context.Context, salesID int64) ([]Request, error) {
	return s.repo.ListBySales(ctx, salesID)
}

// ListByResearcher returns the requests assigned to a researcher.
func (s *Service) ListByResearcher(ctx context.Context, researcherID int64) ([]Request, error) {
	return s.repo.ListByResearcher(ctx, researcherID)
}

// ListAll returns every request regardless of confidentiality.
func (s *Service) ListAll(ctx context.Context) ([]Request, error) {
	return s.repo.ListAll(ctx)
}

// ListVisibleFor returns the requests the actor may see.
func (s *Service) ListVisibleFor(ctx context.Context, actor identity.User) ([]Request, error) {
	return s.repo.ListVisibleFor(ctx, actor)
}

// ListPublic returns all non-confidential requests.
func (s *Service) ListPublic(ctx context.Context) ([]Request, error) {
	return s.repo.ListPublic(ctx)
}

// UpdateStatusParams carries a workflow update. Any status may follow any
// other; reopening a completed request is allowed and leaves completed_at
// at its previous value.
type UpdateStatusParams struct {
	Status         Status
	ResultNote     *string
	AttachmentPath *string
	WorkHours      float64
}

// UpdateStatus applies a workflow update on behalf of the actor, who must
// be the currently assigned researcher. When the update replaces a stored
// attachment the previous file is removed best-effort.
func (s *Service) UpdateStatus(ctx context.Context, actor identity.User, id int64, params UpdateStatusParams) (Request, error) {
	if !ValidStatus(params.Status) {
		return Request{}, ErrInvalidStatus
	}
	if params.WorkHours < 0 {
		return Request{}, ErrNegativeHours
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !CanUpdateStatus(actor, current) {
		return Request{}, ErrForbidden
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusUpdate{
		Status:         params.Status,
		ResultNote:     params.ResultNote,
		AttachmentPath: params.AttachmentPath,
		WorkHours:      params.WorkHours,
	})
	if err != nil {
		return Request{}, err
	}

	removeReplacedAttachment(current.AttachmentPath, updated.AttachmentPath)
	return updated, nil
}

// Reassign moves the request to another researcher. Admin only; the new
// assignee must hold the researcher role.
func (s *Service) Reassign(ctx context.Context, actor identity.User, id int64, researcherID int64) error {
	if !CanReassign(actor) {
		return ErrForbidden
	}
	if err := s.ensureResearcher(ctx, researcherID); err != nil {
		return err
	}
	return s.repo.Reassign(ctx, id, researcherID)
}

// SetConfidential flips the confidentiality flag. Admin only.
func (s *Service) SetConfidential(ctx context.Context, actor identity.User, id int64, confidential bool) error {
	if !CanToggleConfidential(actor) {
		return ErrForbidden
	}
	return s.repo.SetConfidential(ctx, id, confidential)
}

// CheckWorkload reports whether the researcher already carries the
// overload threshold of unfinished same-day assignments, and the count.
func (s *Service) CheckWorkload(ctx context.Context, researcherID int64) (bool, int, error) {
	count, err := s.repo.CountTodayPending(ctx, researcherID)
	if err != nil {
		return false, 0, err
	}
	return count >= overloadThreshold, count, nil
}

// StoreAttachment writes an uploaded file under the upload directory and
// returns the stored path for a subsequent UpdateStatus call. The file and
// the row reference are not written transactionally; a failure in between
// can leave an orphaned file, which is accepted and documented.
func (s *Service) StoreAttachment(requestID int64, filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("request: create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s_%s", requestID, uuid.NewString()[:8], filepath.Base(filename))
	path := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("request: create attachment file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("request: write attachment: %w", err)
	}

	return path, nil
}

func (s *Service) ensureResearcher(ctx context.Context, researcherID int64) error {
	researcher, err := s.users.GetUserByID(ctx, researcherID)
	if err != nil {
		return fmt.Errorf("request: resolve researcher: %w", err)
	}
	if researcher.Role != identity.RoleResearcher {
		return fmt.Errorf("request: user %d is not a researcher", researcherID)
	}
	return nil
}

// removeReplacedAttachment deletes the previously stored file once a new
// reference has been written. Errors are ignored: losing the cleanup only
// leaves an orphaned file, never a dangling reference.
func removeReplacedAttachment(previous, current *string) {
	if previous == nil {
		return
	}
	if current != nil && *current == *previous {
		return
	}
	_ = os.Remove(*previous)
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const validationJobColumns = `id, params, status, progress, consistent, conflict_count, result_url, created_by, created_at, finished_at, error_message`

// ValidationJobRepository persists asynchronous validation runs.
type ValidationJobRepository struct {
	db *sqlx.DB
}

// NewValidationJobRepository constructs the repository.
func NewValidationJobRepository(db *sqlx.DB) *ValidationJobRepository {
	return &ValidationJobRepository{db: db}
}

// Create inserts a new job row with generated defaults.
func (r *ValidationJobRepository) Create(ctx context.Context, job *models.ValidationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO validation_jobs (id, params, status, progress, consistent, conflict_count, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :params, :status, :progress, :consistent, :conflict_count, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create validation job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *ValidationJobRepository) GetByID(ctx context.Context, id string) (*models.ValidationJob, error) {
	query := `SELECT ` + validationJobColumns + ` FROM validation_jobs WHERE id = $1`
	var job models.ValidationJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get validation job: %w", err)
	}
	return &job, nil
}

// UpdateValidationJobParams defines the mutable fields; nil fields are left untouched.
type UpdateValidationJobParams struct {
	Status        *models.JobStatus
	Progress      *int
	Consistent    *bool
	ConflictCount *int
	ResultURL     *string
	ErrorMessage  *string
	FinishedAt    *time.Time
}

// Update persists the provided changes for a job row.
func (r *ValidationJobRepository) Update(ctx context.Context, id string, params UpdateValidationJobParams) error {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Progress != nil {
		add("progress", *params.Progress)
	}
	if params.Consistent != nil {
		add("consistent", *params.Consistent)
	}
	if params.ConflictCount != nil {
		add("conflict_count", *params.ConflictCount)
	}
	if params.ResultURL != nil {
		add("result_url", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE validation_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update validation job: %w", err)
	}
	return nil
}

// ListQueued fetches queued jobs, used to replay work after a restart.
func (r *ValidationJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ValidationJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + validationJobColumns + ` FROM validation_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ValidationJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued validation jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs finished prior to cutoff.
func (r *ValidationJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ValidationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + validationJobColumns + ` FROM validation_jobs
WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.ValidationJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished validation jobs: %w", err)
	}
	return jobs, nil
}

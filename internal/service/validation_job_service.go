package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

// ValidationJobType tags queue jobs produced by this service.
const ValidationJobType = "timetable_validation"

type validationJobStore interface {
	Create(ctx context.Context, job *models.ValidationJob) error
	GetByID(ctx context.Context, id string) (*models.ValidationJob, error)
	Update(ctx context.Context, id string, params repository.UpdateValidationJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ValidationJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ValidationJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
	TryEnqueue(job jobs.Job) error
}

// ValidationJobConfig governs queue recovery, cleanup and scheduled runs.
type ValidationJobConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	DefaultLevel    string
	Levels          []string
	DefaultFormat   models.ReportFormat
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ValidationJobService orchestrates asynchronous validation reports.
type ValidationJobService struct {
	repo      validationJobStore
	queue     jobDispatcher
	exporter  *ExportService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ValidationJobConfig
}

// NewValidationJobService constructs the service.
func NewValidationJobService(repo validationJobStore, queue jobDispatcher, exporter *ExportService, cfg ValidationJobConfig, logger *zap.Logger) *ValidationJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = models.ReportFormatCSV
	}
	return &ValidationJobService{
		repo:      repo,
		queue:     queue,
		exporter:  exporter,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob persists a manual validation job and enqueues it.
func (s *ValidationJobService) CreateJob(ctx context.Context, req dto.ValidationJobRequest, actorID string) (*dto.ValidationJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation job payload")
	}
	job, err := s.create(ctx, levelOrDefault(req.Level, s.cfg.DefaultLevel), req.Format, models.TriggerManual, actorID)
	if err != nil {
		return nil, err
	}
	return &dto.ValidationJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// EnqueueAll schedules one validation job per configured level. Failures
// on one level do not prevent the others.
func (s *ValidationJobService) EnqueueAll(ctx context.Context, trigger models.JobTrigger, actorID string) error {
	levels := s.cfg.Levels
	if len(levels) == 0 {
		levels = []string{s.cfg.DefaultLevel}
	}
	var errs []error
	for _, level := range levels {
		job, err := s.create(ctx, level, s.cfg.DefaultFormat, trigger, actorID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Info("validation job enqueued",
			zap.String("job_id", job.ID),
			zap.String("level", level),
			zap.String("trigger", string(trigger)))
	}
	return errors.Join(errs...)
}

func (s *ValidationJobService) create(ctx context.Context, level string, format models.ReportFormat, trigger models.JobTrigger, actorID string) (*models.ValidationJob, error) {
	job := &models.ValidationJob{
		Params:    models.ValidationJobParams{Level: level, Format: format, Trigger: trigger},
		Status:    models.JobStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create validation job")
	}
	if err := s.dispatch(trigger, jobs.Job{ID: job.ID, Type: ValidationJobType}); err != nil {
		s.markUndispatched(ctx, job.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue validation job")
	}
	return job, nil
}

// dispatch blocks only for manual requests. Background triggers give up
// when the buffer is full; the nightly run catches up.
// markUndispatched fails a job the queue refused so it is not left queued.
func (s *ValidationJobService) markUndispatched(ctx context.Context, id string) {
	status := models.JobStatusFailed
	msg := "failed to enqueue job"
	now := time.Now().UTC()
	progress := 100
	if err := s.repo.Update(ctx, id, repository.UpdateValidationJobParams{
		Status:       &status,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to mark job failed", "job_id", id, "error", err)
	}
}

func (s *ValidationJobService) dispatch(trigger models.JobTrigger, job jobs.Job) error {
	if trigger == models.TriggerManual {
		return s.queue.Enqueue(job)
	}
	return s.queue.TryEnqueue(job)
}

// GetStatus exposes job progress and outcome.
func (s *ValidationJobService) GetStatus(ctx context.Context, id string) (*dto.ValidationJobStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validation job")
	}
	resp := &dto.ValidationJobStatusResponse{
		ID:            job.ID,
		Level:         job.Params.Level,
		Status:        job.Status,
		Progress:      job.Progress,
		Consistent:    job.Consistent,
		ConflictCount: job.ConflictCount,
		ResultURL:     job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ValidationJobService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	grant, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, grant.ReportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validation job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.JobStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exporter.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(grant.Path),
		Format:    job.Params.Format,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a restart.
func (s *ValidationJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued validation jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.dispatch(job.Params.Trigger, jobs.Job{ID: job.ID, Type: ValidationJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
			s.markUndispatched(ctx, job.ID)
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ValidationJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ValidationJobService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Sugar().Warnw("cleanup list failed", "error", err)
			return
		}
		for _, job := range expired {
			if job.ResultURL == nil {
				continue
			}
			token := extractToken(*job.ResultURL)
			if token == "" {
				continue
			}
			grant, err := s.exporter.ParseToken(token, true)
			if err != nil {
				continue
			}
			if err := s.exporter.Delete(grant.Path); err != nil {
				s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
			}
		}
		if len(expired) < 100 {
			break
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

type reportValidator interface {
	Validate(ctx context.Context, level string) (*dto.ValidationReport, error)
}

type reportExporter interface {
	ExportReport(jobID string, report *dto.ValidationReport, format models.ReportFormat) (*ExportResult, error)
}

// ValidationJobWorker bridges queue jobs to the validator and the exporter.
type ValidationJobWorker struct {
	repo       validationJobStore
	validator  reportValidator
	exporter   reportExporter
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewValidationJobWorker constructs a worker.
func NewValidationJobWorker(repo validationJobStore, validator reportValidator, exporter reportExporter, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ValidationJobWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ValidationJobWorker{
		repo:       repo,
		validator:  validator,
		exporter:   exporter,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes a queue job.
func (w *ValidationJobWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.JobStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateValidationJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	report, err := w.validator.Validate(ctx, record.Params.Level)
	if err != nil {
		return w.fail(ctx, job, err)
	}
	result, err := w.exporter.ExportReport(job.ID, report, record.Params.Format)
	if err != nil {
		return w.fail(ctx, job, err)
	}

	finished := models.JobStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	consistent := report.Consistent
	conflicts := len(report.Conflicts)
	if err := w.repo.Update(ctx, job.ID, repository.UpdateValidationJobParams{
		Status:        &finished,
		Progress:      &progress,
		Consistent:    &consistent,
		ConflictCount: &conflicts,
		ResultURL:     &url,
		ErrorMessage:  &clear,
		FinishedAt:    &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	w.metrics.RecordJob("finished")
	if !consistent {
		w.logger.Warn("timetable inconsistent",
			zap.String("job_id", job.ID),
			zap.String("level", record.Params.Level),
			zap.String("trigger", string(record.Params.Trigger)),
			zap.Int("conflicts", conflicts))
	}
	return nil
}

// fail records the failure. Client errors such as an unknown format fail the
// job at once; anything else is requeued until the retry budget is spent.
func (w *ValidationJobWorker) fail(ctx context.Context, job jobs.Job, cause error) error {
	msg := cause.Error()
	permanent := appErrors.FromError(cause).Status < http.StatusInternalServerError
	if permanent || job.Attempt >= w.maxRetries {
		failed := models.JobStatusFailed
		progress := 100
		now := time.Now().UTC()
		if err := w.repo.Update(ctx, job.ID, repository.UpdateValidationJobParams{
			Status:       &failed,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); err != nil {
			w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", err)
		}
		w.metrics.RecordJob("failed")
		if permanent {
			return jobs.Permanent(cause)
		}
		return cause
	}
	queued := models.JobStatusQueued
	reset := 0
	if err := w.repo.Update(ctx, job.ID, repository.UpdateValidationJobParams{
		Status:       &queued,
		Progress:     &reset,
		ErrorMessage: &msg,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", err)
	}
	w.metrics.RecordJob("retry")
	return cause
}

package dto

import "github.com/noah-isme/sma-timetable/internal/models"

// ValidationJobRequest captures POST /timetable/validate/export.
type ValidationJobRequest struct {
	Level  string              `json:"level" validate:"omitempty,max=32"`
	Format models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ValidationJobResponse is returned after enqueueing a validation report.
type ValidationJobResponse struct {
	ID       string           `json:"id"`
	Status   models.JobStatus `json:"status"`
	Progress int              `json:"progress"`
}

// ValidationJobStatusResponse exposes job progress and outcome.
type ValidationJobStatusResponse struct {
	ID            string           `json:"id"`
	Level         string           `json:"level"`
	Status        models.JobStatus `json:"status"`
	Progress      int              `json:"progress"`
	Consistent    *bool            `json:"consistent,omitempty"`
	ConflictCount int              `json:"conflictCount"`
	ResultURL     *string          `json:"resultUrl,omitempty"`
	Error         *string          `json:"error,omitempty"`
}

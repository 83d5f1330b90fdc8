package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// JobTrigger records what asked for a validation run.
type JobTrigger string

const (
	TriggerManual   JobTrigger = "manual"
	TriggerSchedule JobTrigger = "schedule"
	TriggerRoster   JobTrigger = "roster"
)

// JobStatus captures background job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusFinished   JobStatus = "FINISHED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ValidationJob is a persisted asynchronous consistency check of one level.
type ValidationJob struct {
	ID            string              `db:"id" json:"id"`
	Params        ValidationJobParams `db:"params" json:"params"`
	Status        JobStatus           `db:"status" json:"status"`
	Progress      int                 `db:"progress" json:"progress"`
	Consistent    *bool               `db:"consistent" json:"consistent,omitempty"`
	ConflictCount int                 `db:"conflict_count" json:"conflict_count"`
	ResultURL     *string             `db:"result_url" json:"result_url,omitempty"`
	CreatedBy     string              `db:"created_by" json:"created_by"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	FinishedAt    *time.Time          `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage  *string             `db:"error_message" json:"error_message,omitempty"`
}

// ValidationJobParams is stored as JSONB.
type ValidationJobParams struct {
	Level   string       `json:"level"`
	Format  ReportFormat `json:"format"`
	Trigger JobTrigger   `json:"trigger"`
}

// Value marshals params to JSON for persistence.
func (p ValidationJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal validation job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ValidationJobParams) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ValidationJobParams", value)
	}
	if len(data) == 0 {
		*p = ValidationJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal validation job params: %w", err)
	}
	return nil
}

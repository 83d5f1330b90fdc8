package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const periodicEventColumns = `id, level, day, begin_time, end_time, begweek, endweek, periodicity, label, subject, classroom, attendance, note_count`

const baseEventColumns = `id, level, begins_at, ends_at, week_number, override, inscription, label, classroom, attendance`

// EventRepository loads recurring and one-off events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListPeriodic returns the recurring events of a level ordered by day and time.
func (r *EventRepository) ListPeriodic(ctx context.Context, level string) ([]models.PeriodicEvent, error) {
	query := `SELECT ` + periodicEventColumns + ` FROM periodic_events WHERE level = $1 ORDER BY day ASC, begin_time ASC, id ASC`
	var events []models.PeriodicEvent
	if err := r.db.SelectContext(ctx, &events, query, level); err != nil {
		return nil, fmt.Errorf("list periodic events: %w", err)
	}
	return events, nil
}

// ListPeriodicForWeek returns the recurring events of a level taking place in
// the numbered week.
func (r *EventRepository) ListPeriodicForWeek(ctx context.Context, level string, week int) ([]models.PeriodicEvent, error) {
	query := `SELECT ` + periodicEventColumns + ` FROM periodic_events
WHERE level = $1 AND begweek <= $2 AND endweek >= $2 AND ($2 - begweek) % GREATEST(periodicity, 1) = 0
ORDER BY day ASC, begin_time ASC, id ASC`
	var events []models.PeriodicEvent
	if err := r.db.SelectContext(ctx, &events, query, level, week); err != nil {
		return nil, fmt.Errorf("list periodic events for week: %w", err)
	}
	return events, nil
}

// ListBase returns the one-off events of a level ordered by start.
func (r *EventRepository) ListBase(ctx context.Context, level string) ([]models.BaseEvent, error) {
	query := `SELECT ` + baseEventColumns + ` FROM base_events WHERE level = $1 ORDER BY begins_at ASC, id ASC`
	var events []models.BaseEvent
	if err := r.db.SelectContext(ctx, &events, query, level); err != nil {
		return nil, fmt.Errorf("list base events: %w", err)
	}
	return events, nil
}

// ListBaseBetween returns the one-off events of a level starting in [from, to).
func (r *EventRepository) ListBaseBetween(ctx context.Context, level string, from, to time.Time) ([]models.BaseEvent, error) {
	query := `SELECT ` + baseEventColumns + ` FROM base_events
WHERE level = $1 AND begins_at >= $2 AND begins_at < $3 ORDER BY begins_at ASC, id ASC`
	var events []models.BaseEvent
	if err := r.db.SelectContext(ctx, &events, query, level, from, to); err != nil {
		return nil, fmt.Errorf("list base events between: %w", err)
	}
	return events, nil
}

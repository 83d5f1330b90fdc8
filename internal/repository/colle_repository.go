package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const collePlanningSelect = `SELECT p.id, p.slot_id, s.level, s.day, s.begin_time, s.end_time, s.teacher, s.subject, s.classroom,
p.group_number, COALESCE(g.size, 0) AS group_size, w.number AS week_number, w.begin_date AS week_begin, w.end_date AS week_end, w.holiday
FROM colle_plannings p
JOIN colle_slots s ON s.id = p.slot_id
JOIN weeks w ON w.id = p.week_id
LEFT JOIN (SELECT level, group_number, COUNT(*) AS size FROM group_members GROUP BY level, group_number) g
  ON g.level = s.level AND g.group_number = p.group_number`

// ColleRepository loads tutoring sessions planned per week.
type ColleRepository struct {
	db *sqlx.DB
}

// NewColleRepository constructs the repository.
func NewColleRepository(db *sqlx.DB) *ColleRepository {
	return &ColleRepository{db: db}
}

// ListByLevel returns every planned session of a level.
func (r *ColleRepository) ListByLevel(ctx context.Context, level string) ([]models.CollePlanning, error) {
	query := collePlanningSelect + `
WHERE s.level = $1 ORDER BY w.begin_date ASC, s.day ASC, s.begin_time ASC, p.id ASC`
	var plannings []models.CollePlanning
	if err := r.db.SelectContext(ctx, &plannings, query, level); err != nil {
		return nil, fmt.Errorf("list colle plannings: %w", err)
	}
	return plannings, nil
}

// ListForWeek returns the sessions of a level planned in the numbered week.
func (r *ColleRepository) ListForWeek(ctx context.Context, level string, week int) ([]models.CollePlanning, error) {
	query := collePlanningSelect + `
WHERE s.level = $1 AND w.number = $2 AND w.holiday = FALSE ORDER BY s.day ASC, s.begin_time ASC, p.id ASC`
	var plannings []models.CollePlanning
	if err := r.db.SelectContext(ctx, &plannings, query, level, week); err != nil {
		return nil, fmt.Errorf("list colle plannings for week: %w", err)
	}
	return plannings, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const weekColumns = `id, number, begin_date, end_date, label, holiday`

// WeekRepository reads and rebuilds the academic-year calendar.
type WeekRepository struct {
	db *sqlx.DB
}

// NewWeekRepository constructs the repository.
func NewWeekRepository(db *sqlx.DB) *WeekRepository {
	return &WeekRepository{db: db}
}

// List returns every week ordered by its first day.
func (r *WeekRepository) List(ctx context.Context) ([]models.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM weeks ORDER BY begin_date ASC`
	var weeks []models.Week
	if err := r.db.SelectContext(ctx, &weeks, query); err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	return weeks, nil
}

// FindByNumber returns the non-holiday week with the given number.
func (r *WeekRepository) FindByNumber(ctx context.Context, number int) (*models.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM weeks WHERE number = $1 AND holiday = FALSE`
	var week models.Week
	if err := r.db.GetContext(ctx, &week, query, number); err != nil {
		return nil, fmt.Errorf("find week %d: %w", number, err)
	}
	return &week, nil
}

// FindByDate returns the week containing date, holiday or not.
func (r *WeekRepository) FindByDate(ctx context.Context, date time.Time) (*models.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM weeks WHERE begin_date <= $1 AND end_date >= $1`
	var week models.Week
	if err := r.db.GetContext(ctx, &week, query, date); err != nil {
		return nil, fmt.Errorf("find week by date: %w", err)
	}
	return &week, nil
}

// ReplaceAll swaps the whole calendar inside one transaction.
func (r *WeekRepository) ReplaceAll(ctx context.Context, weeks []models.Week) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace weeks: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM weeks`); err != nil {
		return fmt.Errorf("clear weeks: %w", err)
	}
	const insert = `INSERT INTO weeks (number, begin_date, end_date, label, holiday)
VALUES (:number, :begin_date, :end_date, :label, :holiday)`
	for i := range weeks {
		if _, err = tx.NamedExecContext(ctx, insert, &weeks[i]); err != nil {
			return fmt.Errorf("insert week %s: %w", weeks[i].Label, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit weeks: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Roster bundles the membership tables the attendance resolver indexes.
type Roster struct {
	Members  []models.GroupMember
	Teachers []models.TeacherName
	Groups   []models.TutoringGroup
}

// RosterRepository reads group membership and teacher names.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// Load reads the full roster of every level.
func (r *RosterRepository) Load(ctx context.Context) (*Roster, error) {
	roster := &Roster{}
	if err := r.db.SelectContext(ctx, &roster.Members,
		`SELECT user_id, level, group_number FROM group_members ORDER BY level, group_number, user_id`); err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}
	if err := r.db.SelectContext(ctx, &roster.Teachers,
		`SELECT user_id, display_name FROM teachers ORDER BY display_name, user_id`); err != nil {
		return nil, fmt.Errorf("load teachers: %w", err)
	}
	if err := r.db.SelectContext(ctx, &roster.Groups,
		`SELECT level, number FROM tutoring_groups ORDER BY level, number`); err != nil {
		return nil, fmt.Errorf("load tutoring groups: %w", err)
	}
	return roster, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield/timetable-solver/internal/models"
)

// BreakRepository manages persistence for breaks.
type BreakRepository struct{}

// NewBreakRepository constructs a BreakRepository.
func NewBreakRepository() *BreakRepository {
	return &BreakRepository{}
}

// ListBySchool returns every break for the school with the teachers and
// year groups it occupies populated.
func (r *BreakRepository) ListBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Break, error) {
	const query = `SELECT id, school_id, day_of_week, starts_at, ends_at
		FROM breaks WHERE school_id = $1 ORDER BY day_of_week, starts_at, id`
	var breaks []models.Break
	if err := sqlx.SelectContext(ctx, q, &breaks, query, schoolID); err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	if len(breaks) == 0 {
		return breaks, nil
	}

	index := make(map[string]*models.Break, len(breaks))
	for i := range breaks {
		index[breaks[i].ID] = &breaks[i]
	}

	type link struct {
		BreakID string `db:"break_id"`
		Other   string `db:"other_id"`
	}

	var teachers []link
	const teacherQuery = `SELECT bt.break_id, bt.teacher_id AS other_id
		FROM break_teachers bt JOIN breaks b ON b.id = bt.break_id
		WHERE b.school_id = $1 ORDER BY bt.break_id, bt.teacher_id`
	if err := sqlx.SelectContext(ctx, q, &teachers, teacherQuery, schoolID); err != nil {
		return nil, fmt.Errorf("list break teachers: %w", err)
	}
	for _, t := range teachers {
		if brk, ok := index[t.BreakID]; ok {
			brk.TeacherIDs = append(brk.TeacherIDs, t.Other)
		}
	}

	var yearGroups []link
	const ygQuery = `SELECT byg.break_id, byg.year_group_id AS other_id
		FROM break_year_groups byg JOIN breaks b ON b.id = byg.break_id
		WHERE b.school_id = $1 ORDER BY byg.break_id, byg.year_group_id`
	if err := sqlx.SelectContext(ctx, q, &yearGroups, ygQuery, schoolID); err != nil {
		return nil, fmt.Errorf("list break year groups: %w", err)
	}
	for _, y := range yearGroups {
		if brk, ok := index[y.BreakID]; ok {
			brk.YearGroupIDs = append(brk.YearGroupIDs, y.Other)
		}
	}

	return breaks, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield/timetable-solver/internal/models"
)

// RosterRepository reads the school roster: pupils, teachers, classrooms
// and year groups.
type RosterRepository struct{}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository() *RosterRepository {
	return &RosterRepository{}
}

func (r *RosterRepository) PupilsBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Pupil, error) {
	const query = `SELECT id, school_id, year_group_id FROM pupils WHERE school_id = $1 ORDER BY id`
	var pupils []models.Pupil
	if err := sqlx.SelectContext(ctx, q, &pupils, query, schoolID); err != nil {
		return nil, fmt.Errorf("list pupils: %w", err)
	}
	return pupils, nil
}

func (r *RosterRepository) TeachersBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Teacher, error) {
	const query = `SELECT id, school_id FROM teachers WHERE school_id = $1 ORDER BY id`
	var teachers []models.Teacher
	if err := sqlx.SelectContext(ctx, q, &teachers, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

func (r *RosterRepository) ClassroomsBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Classroom, error) {
	const query = `SELECT id, school_id FROM classrooms WHERE school_id = $1 ORDER BY id`
	var classrooms []models.Classroom
	if err := sqlx.SelectContext(ctx, q, &classrooms, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return classrooms, nil
}

func (r *RosterRepository) YearGroupsBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.YearGroup, error) {
	const query = `SELECT id, school_id, name FROM year_groups WHERE school_id = $1 ORDER BY id`
	var yearGroups []models.YearGroup
	if err := sqlx.SelectContext(ctx, q, &yearGroups, query, schoolID); err != nil {
		return nil, fmt.Errorf("list year groups: %w", err)
	}
	return yearGroups, nil
}

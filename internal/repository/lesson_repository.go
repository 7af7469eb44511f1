package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield/timetable-solver/internal/models"
)

// LessonRepository manages persistence for lessons and their slot links.
type LessonRepository struct{}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository() *LessonRepository {
	return &LessonRepository{}
}

// ListBySchool returns every lesson for the school with its pupil and
// slot associations populated. The queryer lets callers run the whole
// read on one transaction.
func (r *LessonRepository) ListBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Lesson, error) {
	const query = `SELECT id, school_id, subject, teacher_id, classroom_id, total_required_slots, total_required_double_periods
		FROM lessons WHERE school_id = $1 ORDER BY id`
	var lessons []models.Lesson
	if err := sqlx.SelectContext(ctx, q, &lessons, query, schoolID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	if len(lessons) == 0 {
		return lessons, nil
	}

	index := make(map[string]*models.Lesson, len(lessons))
	for i := range lessons {
		index[lessons[i].ID] = &lessons[i]
	}

	type link struct {
		LessonID string `db:"lesson_id"`
		Other    string `db:"other_id"`
	}

	var pupils []link
	const pupilQuery = `SELECT lp.lesson_id, lp.pupil_id AS other_id
		FROM lesson_pupils lp JOIN lessons l ON l.id = lp.lesson_id
		WHERE l.school_id = $1 ORDER BY lp.lesson_id, lp.pupil_id`
	if err := sqlx.SelectContext(ctx, q, &pupils, pupilQuery, schoolID); err != nil {
		return nil, fmt.Errorf("list lesson pupils: %w", err)
	}
	for _, p := range pupils {
		if lesson, ok := index[p.LessonID]; ok {
			lesson.PupilIDs = append(lesson.PupilIDs, p.Other)
		}
	}

	var userSlots []link
	const userSlotQuery = `SELECT ls.lesson_id, ls.slot_id AS other_id
		FROM lesson_user_defined_slots ls JOIN lessons l ON l.id = ls.lesson_id
		WHERE l.school_id = $1 ORDER BY ls.lesson_id, ls.slot_id`
	if err := sqlx.SelectContext(ctx, q, &userSlots, userSlotQuery, schoolID); err != nil {
		return nil, fmt.Errorf("list user defined slots: %w", err)
	}
	for _, s := range userSlots {
		if lesson, ok := index[s.LessonID]; ok {
			lesson.UserDefinedSlotIDs = append(lesson.UserDefinedSlotIDs, s.Other)
		}
	}

	var solverSlots []link
	const solverSlotQuery = `SELECT ls.lesson_id, ls.slot_id AS other_id
		FROM lesson_solver_defined_slots ls JOIN lessons l ON l.id = ls.lesson_id
		WHERE l.school_id = $1 ORDER BY ls.lesson_id, ls.slot_id`
	if err := sqlx.SelectContext(ctx, q, &solverSlots, solverSlotQuery, schoolID); err != nil {
		return nil, fmt.Errorf("list solver defined slots: %w", err)
	}
	for _, s := range solverSlots {
		if lesson, ok := index[s.LessonID]; ok {
			lesson.SolverDefinedSlotIDs = append(lesson.SolverDefinedSlotIDs, s.Other)
		}
	}

	return lessons, nil
}

// ClearSolverSlots removes every solver-defined slot link for the school.
func (r *LessonRepository) ClearSolverSlots(ctx context.Context, e sqlx.ExtContext, schoolID string) error {
	const query = `DELETE FROM lesson_solver_defined_slots
		WHERE lesson_id IN (SELECT id FROM lessons WHERE school_id = $1)`
	if _, err := e.ExecContext(ctx, query, schoolID); err != nil {
		return fmt.Errorf("clear solver slots: %w", err)
	}
	return nil
}

// InsertSolverSlots stores the given assignments as solver-defined slots.
func (r *LessonRepository) InsertSolverSlots(ctx context.Context, e sqlx.ExtContext, assignments []models.SolvedAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	const query = `INSERT INTO lesson_solver_defined_slots (lesson_id, slot_id) VALUES (:lesson_id, :slot_id)`
	if _, err := sqlx.NamedExecContext(ctx, e, query, assignments); err != nil {
		return fmt.Errorf("insert solver slots: %w", err)
	}
	return nil
}

package models

import "database/sql"

// Lesson is a recurring class requiring a fixed number of weekly slots.
// User-defined slots are immutable inputs to a solve; solver-defined slots
// are its output and are replaced wholesale on every successful solve.
type Lesson struct {
	ID                         string         `db:"id"`
	SchoolID                   string         `db:"school_id"`
	Subject                    string         `db:"subject"`
	TeacherID                  sql.NullString `db:"teacher_id"`
	ClassroomID                sql.NullString `db:"classroom_id"`
	TotalRequiredSlots         int            `db:"total_required_slots"`
	TotalRequiredDoublePeriods int            `db:"total_required_double_periods"`

	PupilIDs             []string `db:"-"`
	UserDefinedSlotIDs   []string `db:"-"`
	SolverDefinedSlotIDs []string `db:"-"`
}

// RequiredSolverSlots is how many slots the solver still has to place.
func (l Lesson) RequiredSolverSlots() int {
	n := l.TotalRequiredSlots - len(l.UserDefinedSlotIDs)
	if n < 0 {
		return 0
	}
	return n
}

// HasUserDefinedSlot reports whether the given slot is pinned to the lesson.
func (l Lesson) HasUserDefinedSlot(slotID string) bool {
	for _, id := range l.UserDefinedSlotIDs {
		if id == slotID {
			return true
		}
	}
	return false
}

// InvolvesPupil reports whether the pupil attends the lesson.
func (l Lesson) InvolvesPupil(pupilID string) bool {
	for _, id := range l.PupilIDs {
		if id == pupilID {
			return true
		}
	}
	return false
}

// SolvedAssignment is one (lesson, slot) pairing chosen by the solver.
type SolvedAssignment struct {
	LessonID string `db:"lesson_id"`
	SlotID   string `db:"slot_id"`
}

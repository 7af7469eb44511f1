package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield/timetable-solver/internal/models"
)

type stubReaders struct {
	lessons    []models.Lesson
	slots      []models.TimetableSlot
	breaks     []models.Break
	pupils     []models.Pupil
	teachers   []models.Teacher
	classrooms []models.Classroom
	yearGroups []models.YearGroup
	lessonsErr error
}

func (s *stubReaders) ListBySchool(context.Context, sqlx.QueryerContext, string) ([]models.Lesson, error) {
	return s.lessons, s.lessonsErr
}

type stubSlotReader struct{ r *stubReaders }

func (s stubSlotReader) ListBySchool(context.Context, sqlx.QueryerContext, string) ([]models.TimetableSlot, error) {
	return s.r.slots, nil
}

type stubBreakReader struct{ r *stubReaders }

func (s stubBreakReader) ListBySchool(context.Context, sqlx.QueryerContext, string) ([]models.Break, error) {
	return s.r.breaks, nil
}

func (s *stubReaders) PupilsBySchool(context.Context, sqlx.QueryerContext, string) ([]models.Pupil, error) {
	return s.pupils, nil
}

func (s *stubReaders) TeachersBySchool(context.Context, sqlx.QueryerContext, string) ([]models.Teacher, error) {
	return s.teachers, nil
}

func (s *stubReaders) ClassroomsBySchool(context.Context, sqlx.QueryerContext, string) ([]models.Classroom, error) {
	return s.classrooms, nil
}

func (s *stubReaders) YearGroupsBySchool(context.Context, sqlx.QueryerContext, string) ([]models.YearGroup, error) {
	return s.yearGroups, nil
}

func TestSQLInputLoaderLoadsOneTransaction(t *testing.T) {
	db, mock, cleanup := newOutcomeMock(t)
	defer cleanup()

	readers := &stubReaders{
		lessons:    []models.Lesson{newLesson("maths", "t1", 2, 0, []string{"p1"})},
		slots:      []models.TimetableSlot{newSlot("mon-9", models.Monday, 9, "yg1")},
		pupils:     []models.Pupil{{ID: "p1", SchoolID: "school-1", YearGroupID: "yg1"}},
		teachers:   []models.Teacher{{ID: "t1", SchoolID: "school-1"}},
		yearGroups: []models.YearGroup{{ID: "yg1", SchoolID: "school-1", Name: "Year 7"}},
	}
	loader := NewSQLInputLoader(db, readers, stubSlotReader{readers}, stubBreakReader{readers}, readers)

	mock.ExpectBegin()
	mock.ExpectCommit()

	snap, err := loader.Load(context.Background(), "school-1", models.SolutionSpecification{})
	require.NoError(t, err)
	assert.Equal(t, "school-1", snap.SchoolID)
	assert.Len(t, snap.Lessons, 1)
	assert.Len(t, snap.Slots, 1)
	assert.Contains(t, snap.Pupils, "p1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLInputLoaderRollsBackOnReadFailure(t *testing.T) {
	db, mock, cleanup := newOutcomeMock(t)
	defer cleanup()

	readers := &stubReaders{lessonsErr: errors.New("boom")}
	loader := NewSQLInputLoader(db, readers, stubSlotReader{readers}, stubBreakReader{readers}, readers)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := loader.Load(context.Background(), "school-1", models.SolutionSpecification{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

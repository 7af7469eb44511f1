package solver

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakfield/timetable-solver/internal/models"
)

type stubSolutionWriter struct {
	clearErr  error
	insertErr error
	cleared   int
	inserted  []models.SolvedAssignment

	// stored mirrors what the database would hold after each call.
	stored []models.SolvedAssignment
}

func (s *stubSolutionWriter) ClearSolverSlots(context.Context, sqlx.ExtContext, string) error {
	s.cleared++
	s.stored = nil
	return s.clearErr
}

func (s *stubSolutionWriter) InsertSolverSlots(_ context.Context, _ sqlx.ExtContext, assignments []models.SolvedAssignment) error {
	s.inserted = append(s.inserted, assignments...)
	s.stored = append(s.stored, assignments...)
	return s.insertErr
}

func newOutcomeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOutcomeApplyCommitsReplaceInsideOneTransaction(t *testing.T) {
	db, mock, cleanup := newOutcomeMock(t)
	defer cleanup()
	writer := &stubSolutionWriter{}
	outcome := NewSQLOutcomeWriter(db, writer, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	assignments := []models.SolvedAssignment{
		{LessonID: "maths", SlotID: "mon-9"},
		{LessonID: "maths", SlotID: "tue-9"},
		{LessonID: "english", SlotID: "mon-10"},
	}
	lessons, err := outcome.Apply(context.Background(), "school-1", assignments)
	require.NoError(t, err)
	assert.Equal(t, 2, lessons)
	assert.Equal(t, 1, writer.cleared)
	assert.Equal(t, assignments, writer.inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeApplyTwiceLeavesOneSolutionStored(t *testing.T) {
	db, mock, cleanup := newOutcomeMock(t)
	defer cleanup()
	writer := &stubSolutionWriter{}
	outcome := NewSQLOutcomeWriter(db, writer, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	assignments := []models.SolvedAssignment{
		{LessonID: "maths", SlotID: "mon-9"},
		{LessonID: "maths", SlotID: "tue-9"},
	}
	first, err := outcome.Apply(context.Background(), "school-1", assignments)
	require.NoError(t, err)
	second, err := outcome.Apply(context.Background(), "school-1", assignments)
	require.NoError(t, err)

	// Each application replaces the previous one, so the stored state
	// after two runs is identical to a single run's.
	assert.Equal(t, first, second)
	assert.Equal(t, 2, writer.cleared)
	assert.Equal(t, assignments, writer.stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeApplyRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newOutcomeMock(t)
	defer cleanup()
	writer := &stubSolutionWriter{insertErr: errors.New("boom")}
	outcome := NewSQLOutcomeWriter(db, writer, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := outcome.Apply(context.Background(), "school-1", []models.SolvedAssignment{{LessonID: "maths", SlotID: "mon-9"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeClear(t *testing.T) {
	db, mock, cleanup := newOutcomeMock(t)
	defer cleanup()
	writer := &stubSolutionWriter{}
	outcome := NewSQLOutcomeWriter(db, writer, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, outcome.Clear(context.Background(), "school-1"))
	assert.Equal(t, 1, writer.cleared)
	assert.Empty(t, writer.inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakfield/timetable-solver/internal/ilp"
	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

type stubLoader struct {
	snap *Snapshot
	err  error
}

func (s *stubLoader) Load(context.Context, string, models.SolutionSpecification) (*Snapshot, error) {
	return s.snap, s.err
}

type recordingOutcome struct {
	applied [][]models.SolvedAssignment
	cleared []string
}

func (r *recordingOutcome) Apply(_ context.Context, _ string, assignments []models.SolvedAssignment) (int, error) {
	r.applied = append(r.applied, assignments)
	lessons := map[string]struct{}{}
	for _, a := range assignments {
		lessons[a.LessonID] = struct{}{}
	}
	return len(lessons), nil
}

func (r *recordingOutcome) Clear(_ context.Context, schoolID string) error {
	r.cleared = append(r.cleared, schoolID)
	return nil
}

func newTestService(snap *Snapshot) (*Service, *recordingOutcome) {
	outcome := &recordingOutcome{}
	driver := NewDriver(ilp.NewGophersatEngine(), 30*time.Second, 0, zap.NewNop())
	svc := NewService(&stubLoader{snap: snap}, driver, outcome, NewLocalSchoolLocker(), NewMetrics(), zap.NewNop())
	return svc, outcome
}

func TestSolveSingleLessonSingleSlot(t *testing.T) {
	snap := oneYearGroupSnapshot(models.SolutionSpecification{AllowSplitLessonsWithinEachDay: true},
		[]models.Lesson{newLesson("maths", "t1", 1, 0, []string{"p1"})},
		[]models.TimetableSlot{newSlot("mon-9", models.Monday, 9, "yg1")}, nil)
	svc, outcome := newTestService(snap)

	result, err := svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Equal(t, models.SolveStatusOptimal, result.Status)
	assert.Equal(t, 1, result.LessonsAssigned)
	assert.Equal(t, 1, result.SlotsAssigned)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, outcome.applied, 1)
	assert.Equal(t, []models.SolvedAssignment{{LessonID: "maths", SlotID: "mon-9"}}, outcome.applied[0])
}

func TestSolveTwoLessonsOneSlotIsInfeasible(t *testing.T) {
	snap := oneYearGroupSnapshot(models.SolutionSpecification{AllowSplitLessonsWithinEachDay: true},
		[]models.Lesson{
			newLesson("maths", "t1", 1, 0, []string{"p1"}),
			newLesson("english", "t2", 1, 0, []string{"p1"}),
		},
		[]models.TimetableSlot{newSlot("mon-9", models.Monday, 9, "yg1")}, nil)
	svc, outcome := newTestService(snap)

	result, err := svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Equal(t, models.SolveStatusInfeasible, result.Status)
	assert.NotEmpty(t, result.Messages)
	assert.Empty(t, outcome.applied, "an infeasible run must not touch stored data")
}

func TestSolveRespectsPinnedLessonsAndBreaks(t *testing.T) {
	lunch := models.Break{
		ID: "lunch", Day: models.Monday,
		StartsAt: models.NewTimeOfDay(12, 0), EndsAt: models.NewTimeOfDay(13, 0),
		YearGroupIDs: []string{"yg1"},
	}
	snap := oneYearGroupSnapshot(models.SolutionSpecification{AllowSplitLessonsWithinEachDay: true},
		[]models.Lesson{
			newLesson("maths", "t1", 1, 0, []string{"p1"}),
			newLesson("english", "t2", 1, 0, []string{"p1"}, "mon-9"),
		},
		[]models.TimetableSlot{
			newSlot("mon-9", models.Monday, 9, "yg1"),
			newSlot("mon-12", models.Monday, 12, "yg1"),
			newSlot("mon-14", models.Monday, 14, "yg1"),
		},
		[]models.Break{lunch})
	svc, outcome := newTestService(snap)

	result, err := svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err)
	require.Equal(t, models.SolveStatusOptimal, result.Status)

	// mon-9 holds the pinned lesson, mon-12 is lunch; only mon-14 remains.
	require.Len(t, outcome.applied, 1)
	assert.Equal(t, []models.SolvedAssignment{{LessonID: "maths", SlotID: "mon-14"}}, outcome.applied[0])
}

func TestSolveAllocatesDoublePeriod(t *testing.T) {
	snap := oneYearGroupSnapshot(models.SolutionSpecification{AllowSplitLessonsWithinEachDay: true},
		[]models.Lesson{newLesson("maths", "t1", 2, 1, []string{"p1"})},
		[]models.TimetableSlot{
			newSlot("mon-9", models.Monday, 9, "yg1"),
			newSlot("tue-9", models.Tuesday, 9, "yg1"),
			newSlot("tue-10", models.Tuesday, 10, "yg1"),
		}, nil)
	svc, outcome := newTestService(snap)

	result, err := svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err)
	require.Equal(t, models.SolveStatusOptimal, result.Status)

	// The only adjacent pair is Tuesday's, so the double pins both.
	require.Len(t, outcome.applied, 1)
	assert.Equal(t, []models.SolvedAssignment{
		{LessonID: "maths", SlotID: "tue-10"},
		{LessonID: "maths", SlotID: "tue-9"},
	}, outcome.applied[0])
}

func TestSolveBansTriplePeriods(t *testing.T) {
	snap := oneYearGroupSnapshot(models.SolutionSpecification{AllowSplitLessonsWithinEachDay: true},
		[]models.Lesson{newLesson("maths", "t1", 3, 0, []string{"p1"})},
		[]models.TimetableSlot{
			newSlot("mon-9", models.Monday, 9, "yg1"),
			newSlot("mon-10", models.Monday, 10, "yg1"),
			newSlot("mon-11", models.Monday, 11, "yg1"),
		}, nil)
	svc, outcome := newTestService(snap)

	result, err := svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Equal(t, models.SolveStatusInfeasible, result.Status)
	assert.Empty(t, outcome.applied)
}

func TestSolveInsufficientData(t *testing.T) {
	snap := oneYearGroupSnapshot(models.SolutionSpecification{},
		[]models.Lesson{newLesson("maths", "t1", 2, 0, []string{"p1"})},
		nil, nil)
	svc, outcome := newTestService(snap)

	result, err := svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Equal(t, models.SolveStatusInsufficientData, result.Status)
	assert.NotEmpty(t, result.Messages)
	assert.Empty(t, outcome.applied)
}

func TestSolveRejectsMissingSchoolID(t *testing.T) {
	svc, _ := newTestService(nil)

	_, err := svc.Solve(context.Background(), SolveRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSolveSerializedPerSchool(t *testing.T) {
	locker := NewLocalSchoolLocker()
	_, err := locker.Acquire(context.Background(), "school-1", "run-a")
	require.NoError(t, err)

	snap := oneYearGroupSnapshot(models.SolutionSpecification{AllowSplitLessonsWithinEachDay: true},
		[]models.Lesson{newLesson("maths", "t1", 1, 0, []string{"p1"})},
		[]models.TimetableSlot{newSlot("mon-9", models.Monday, 9, "yg1")}, nil)
	driver := NewDriver(ilp.NewGophersatEngine(), 30*time.Second, 0, zap.NewNop())
	svc := NewService(&stubLoader{snap: snap}, driver, &recordingOutcome{}, locker, NewMetrics(), zap.NewNop())

	_, err = svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSolveActive))

	// A different school is unaffected.
	_, err = svc.Solve(context.Background(), SolveRequest{SchoolID: "school-2"})
	require.NoError(t, err)
}

func TestClearSolution(t *testing.T) {
	svc, outcome := newTestService(nil)

	require.NoError(t, svc.ClearSolution(context.Background(), "school-1"))
	assert.Equal(t, []string{"school-1"}, outcome.cleared)

	err := svc.ClearSolution(context.Background(), "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLocalLockerReleasesOnCompletion(t *testing.T) {
	snap := oneYearGroupSnapshot(models.SolutionSpecification{AllowSplitLessonsWithinEachDay: true},
		[]models.Lesson{newLesson("maths", "t1", 1, 0, []string{"p1"})},
		[]models.TimetableSlot{newSlot("mon-9", models.Monday, 9, "yg1")}, nil)
	svc, _ := newTestService(snap)

	_, err := svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err)
	_, err = svc.Solve(context.Background(), SolveRequest{SchoolID: "school-1"})
	require.NoError(t, err, "the lock must be released after a finished run")
}

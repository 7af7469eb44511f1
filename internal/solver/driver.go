package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield/timetable-solver/internal/ilp"
	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// Driver assembles the full optimization model from a snapshot, runs the
// engine under the configured time budget, and decodes the outcome.
type Driver struct {
	engine       ilp.Engine
	timeBudget   time.Duration
	objectiveCap time.Duration
	logger       *zap.Logger
}

func NewDriver(engine ilp.Engine, timeBudget, objectiveCap time.Duration, logger *zap.Logger) *Driver {
	return &Driver{
		engine:       engine,
		timeBudget:   timeBudget,
		objectiveCap: objectiveCap,
		logger:       logger,
	}
}

// SolveOutput is the decoded result of one engine run.
type SolveOutput struct {
	Status      ilp.Status
	Assignments []models.SolvedAssignment
	Diagnostics []string
	Variables   int
	Constraints int
}

// Solve builds and solves the model for the given snapshot.
//
// An infeasible model is a normal outcome and comes back with Status set
// and diagnostics describing the likely bottleneck. Engine failures and
// exhausted time budgets come back as a SOLVER_ENGINE_ERROR so callers
// can retry.
func (d *Driver) Solve(ctx context.Context, snap *Snapshot) (*SolveOutput, error) {
	m := ilp.NewModel()

	vars, err := BuildVariables(snap, m)
	if err != nil {
		return nil, err
	}

	builder := NewConstraintBuilder(snap, vars)
	builder.AddAll(m)

	if objective := BuildObjective(snap, vars, int(d.objectiveCap.Minutes())); objective != nil {
		m.SetObjective(objective)
	}

	d.logger.Info("solver model assembled",
		zap.String("school_id", snap.SchoolID),
		zap.Int("variables", m.NumVars()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Bool("has_objective", m.HasObjective()),
	)

	solveCtx, cancel := context.WithTimeout(ctx, d.timeBudget)
	defer cancel()

	sol, err := d.engine.Solve(solveCtx, m)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSolverEngine.Code, appErrors.ErrSolverEngine.Status, "optimization engine failed")
	}

	out := &SolveOutput{
		Status:      sol.Status,
		Variables:   m.NumVars(),
		Constraints: m.NumConstraints(),
	}

	switch sol.Status {
	case ilp.StatusOptimal:
		out.Assignments = decodeAssignments(vars, sol)
	case ilp.StatusInfeasible:
		out.Diagnostics = infeasibilityDiagnostics(snap)
	default:
		return nil, appErrors.Clone(appErrors.ErrSolverEngine,
			fmt.Sprintf("engine finished without a verdict within %s", d.timeBudget))
	}
	return out, nil
}

func decodeAssignments(vars *Variables, sol *ilp.Solution) []models.SolvedAssignment {
	assignments := make([]models.SolvedAssignment, 0, len(vars.Decision))
	for key, v := range vars.Decision {
		if sol.Value(v) {
			assignments = append(assignments, models.SolvedAssignment{
				LessonID: key.LessonID,
				SlotID:   key.SlotID,
			})
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].LessonID != assignments[j].LessonID {
			return assignments[i].LessonID < assignments[j].LessonID
		}
		return assignments[i].SlotID < assignments[j].SlotID
	})
	return assignments
}

// infeasibilityDiagnostics points users at the over-constrained part of
// their data. The checks are heuristic; an empty finding still yields a
// generic explanation.
func infeasibilityDiagnostics(snap *Snapshot) []string {
	var messages []string

	ygDemand := make(map[string]int)
	for _, lesson := range snap.Lessons {
		ygDemand[snap.LessonYearGroup(lesson.ID)] += lesson.RequiredSolverSlots()
	}
	ygIDs := make([]string, 0, len(ygDemand))
	for ygID := range ygDemand {
		ygIDs = append(ygIDs, ygID)
	}
	sort.Strings(ygIDs)
	for _, ygID := range ygIDs {
		capacity := len(snap.SlotsForYearGroup(ygID))
		if ygDemand[ygID] <= capacity {
			continue
		}
		name := ygID
		if yg, ok := snap.YearGroups[ygID]; ok {
			name = yg.Name
		}
		messages = append(messages, fmt.Sprintf(
			"year group %q needs %d more slots but only has %d timetable slots in total",
			name, ygDemand[ygID], capacity))
	}

	teacherDemand := make(map[string]int)
	for _, lesson := range snap.Lessons {
		if lesson.TeacherID.Valid {
			teacherDemand[lesson.TeacherID.String] += lesson.RequiredSolverSlots()
		}
	}
	teacherIDs := make([]string, 0, len(teacherDemand))
	for teacherID := range teacherDemand {
		teacherIDs = append(teacherIDs, teacherID)
	}
	sort.Strings(teacherIDs)
	for _, teacherID := range teacherIDs {
		if teacherDemand[teacherID] <= len(snap.Slots) {
			continue
		}
		messages = append(messages, fmt.Sprintf(
			"teacher %q is needed for %d more slots but the week only has %d",
			teacherID, teacherDemand[teacherID], len(snap.Slots)))
	}

	if len(messages) == 0 {
		messages = append(messages,
			"no timetable satisfies every constraint; relax the solution requirements or review pinned lessons and breaks")
	}
	return messages
}

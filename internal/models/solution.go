package models

// SolutionSpecification captures the user-defined requirements for how a
// school's timetable solution should be generated. It is constructed per
// solve request and never mutated.
type SolutionSpecification struct {
	// AllowSplitLessonsWithinEachDay permits a lesson to occur more than
	// once in a day with a gap between the sessions.
	AllowSplitLessonsWithinEachDay bool

	// AllowTriplePeriodsAndAbove permits three or more chronologically
	// consecutive same-day slots for one lesson.
	AllowTriplePeriodsAndAbove bool

	// OptimalFreePeriodTimeOfDay, when set, is the time of day free periods
	// should gravitate towards. Nil means pure feasibility, no objective.
	OptimalFreePeriodTimeOfDay *TimeOfDay
}

// SolveStatus is the outcome category of one solve run.
type SolveStatus string

const (
	SolveStatusOptimal          SolveStatus = "OPTIMAL"
	SolveStatusInfeasible       SolveStatus = "INFEASIBLE"
	SolveStatusInsufficientData SolveStatus = "INSUFFICIENT_DATA"
	SolveStatusEngineError      SolveStatus = "ENGINE_ERROR"
)

// SolveResult reports what a solve run produced. On anything but an optimal
// status, Messages carries human-readable failure diagnostics and no
// mutation has been performed.
type SolveResult struct {
	RunID           string
	SchoolID        string
	Status          SolveStatus
	LessonsAssigned int
	SlotsAssigned   int
	Messages        []string
}

package solver

import (
	"github.com/oakfield/timetable-solver/internal/ilp"
)

// BuildObjective produces the optional minimization objective pushing
// lessons away from the school's preferred free-period time. Each decision
// variable is weighted by how close its slot starts to that time, so
// minimizing total weight leaves the preferred windows empty.
//
// capMinutes caps the deviation horizon; zero or negative means uncapped.
// A nil return means the specification requested no optimization.
func BuildObjective(snap *Snapshot, vars *Variables, capMinutes int) []ilp.Term {
	preferred := snap.Spec.OptimalFreePeriodTimeOfDay
	if preferred == nil || len(vars.Decision) == 0 {
		return nil
	}

	maxDeviation := 0
	deviations := make(map[string]int, len(snap.Slots))
	for _, slot := range snap.Slots {
		d := slot.StartsAt.MinutesFrom(*preferred)
		deviations[slot.ID] = d
		if d > maxDeviation {
			maxDeviation = d
		}
	}
	if capMinutes > 0 && maxDeviation > capMinutes {
		maxDeviation = capMinutes
	}
	if maxDeviation == 0 {
		return nil
	}

	terms := make([]ilp.Term, 0, len(vars.Decision))
	for key, v := range vars.Decision {
		weight := maxDeviation - deviations[key.SlotID]
		if weight <= 0 {
			continue
		}
		terms = append(terms, ilp.Term{Var: v, Coeff: weight})
	}
	if len(terms) == 0 {
		return nil
	}
	return terms
}

package ilp

import (
	"context"
	"fmt"

	"github.com/crillab/gophersat/solver"
)

// GophersatEngine solves 0/1 linear programs by translating them into
// pseudo-boolean constraints for gophersat. Objectives are handled by
// iteratively tightening an upper bound on the objective expression until
// the problem turns unsatisfiable, at which point the last model is optimal.
type GophersatEngine struct{}

func NewGophersatEngine() *GophersatEngine {
	return &GophersatEngine{}
}

func (e *GophersatEngine) Solve(ctx context.Context, m *Model) (*Solution, error) {
	base, feasible, err := pbConstraints(m)
	if err != nil {
		return nil, err
	}
	if !feasible {
		return &Solution{Status: StatusInfeasible}, nil
	}

	sol := solveOnce(ctx, base, m.NumVars())
	if sol.Status != StatusOptimal || !m.HasObjective() {
		return sol, nil
	}

	best := sol
	best.Objective = evalObjective(m, sol.Values)
	for best.Objective > 0 {
		if ctx.Err() != nil {
			break
		}
		bounded := make([]solver.PBConstr, len(base), len(base)+1)
		copy(bounded, base)
		bound, ok := upperBound(m.objective, best.Objective-1)
		if !ok {
			break
		}
		bounded = append(bounded, bound)

		next := solveOnce(ctx, bounded, m.NumVars())
		if next.Status != StatusOptimal {
			// Unsat proves optimality of the incumbent; a timeout
			// leaves it as the best assignment found in budget.
			break
		}
		next.Objective = evalObjective(m, next.Values)
		best = next
	}
	return best, nil
}

// solveOnce runs one satisfiability check, honouring context cancellation.
// A run abandoned on cancellation finishes in the background and its
// result is discarded; nothing is persisted from this layer.
func solveOnce(ctx context.Context, constrs []solver.PBConstr, numVars int) *Solution {
	pb := solver.ParsePBConstrs(constrs)
	s := solver.New(pb)

	type outcome struct {
		status solver.Status
	}
	done := make(chan outcome, 1)
	go func() {
		done <- outcome{status: s.Solve()}
	}()

	select {
	case <-ctx.Done():
		return &Solution{Status: StatusTimedOut}
	case res := <-done:
		switch res.status {
		case solver.Sat:
			model := s.Model()
			values := make([]bool, numVars)
			for i := 0; i < numVars && i < len(model); i++ {
				values[i] = model[i]
			}
			return &Solution{Status: StatusOptimal, Values: values}
		case solver.Unsat:
			return &Solution{Status: StatusInfeasible}
		default:
			return &Solution{Status: StatusUndefined}
		}
	}
}

// pbConstraints lowers the model to gophersat pseudo-boolean constraints
// (all rewritten as >=). A constraint that degenerates to a violated
// constant, such as an empty fulfillment sum with a positive requirement,
// makes the whole problem trivially infeasible.
func pbConstraints(m *Model) ([]solver.PBConstr, bool, error) {
	constrs := make([]solver.PBConstr, 0, len(m.constraints)+1)
	for _, c := range m.constraints {
		switch c.Sense {
		case GreaterEq:
			pc, feasible := atLeast(c.Terms, c.RHS)
			if !feasible {
				return nil, false, nil
			}
			if pc != nil {
				constrs = append(constrs, *pc)
			}
		case LessEq:
			pc, feasible := atLeast(negateTerms(c.Terms), -c.RHS)
			if !feasible {
				return nil, false, nil
			}
			if pc != nil {
				constrs = append(constrs, *pc)
			}
		case Equal:
			lower, feasible := atLeast(c.Terms, c.RHS)
			if !feasible {
				return nil, false, nil
			}
			upper, feasible := atLeast(negateTerms(c.Terms), -c.RHS)
			if !feasible {
				return nil, false, nil
			}
			if lower != nil {
				constrs = append(constrs, *lower)
			}
			if upper != nil {
				constrs = append(constrs, *upper)
			}
		default:
			return nil, false, fmt.Errorf("unknown constraint sense %d in %q", c.Sense, c.Name)
		}
	}

	// A tautology over the last variable registers the full variable range
	// with the underlying problem.
	if m.NumVars() > 0 {
		last := m.NumVars()
		constrs = append(constrs, solver.GtEq([]int{last, -last}, []int{1, 1}, 1))
	}
	return constrs, true, nil
}

// atLeast normalizes sum(terms) >= rhs into a PBConstr with positive
// weights, substituting c*x = c - c*(1-x) for negative coefficients.
// Returns (nil, true) for tautologies and (nil, false) for contradictions.
func atLeast(terms []Term, rhs int) (*solver.PBConstr, bool) {
	var lits, weights []int
	for _, t := range terms {
		switch {
		case t.Coeff > 0:
			lits = append(lits, lit(t.Var))
			weights = append(weights, t.Coeff)
		case t.Coeff < 0:
			lits = append(lits, -lit(t.Var))
			weights = append(weights, -t.Coeff)
			rhs += -t.Coeff
		}
	}
	if len(lits) == 0 {
		return nil, rhs <= 0
	}
	if rhs <= 0 {
		return nil, true
	}
	total := 0
	for _, w := range weights {
		total += w
	}
	if total < rhs {
		return nil, false
	}
	pc := solver.GtEq(lits, weights, rhs)
	return &pc, true
}

// upperBound encodes sum(objective) <= bound. Returns ok=false when the
// bound cannot be expressed (already below zero).
func upperBound(objective []Term, bound int) (solver.PBConstr, bool) {
	if bound < 0 {
		return solver.PBConstr{}, false
	}
	pc, feasible := atLeast(negateTerms(objective), -bound)
	if pc == nil || !feasible {
		return solver.PBConstr{}, false
	}
	return *pc, true
}

func negateTerms(terms []Term) []Term {
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = Term{Var: t.Var, Coeff: -t.Coeff}
	}
	return out
}

func evalObjective(m *Model, values []bool) int {
	total := 0
	for _, t := range m.objective {
		if int(t.Var) < len(values) && values[t.Var] {
			total += t.Coeff
		}
	}
	return total
}

// lit maps a 0-based Var onto gophersat's 1-based literal numbering.
func lit(v Var) int {
	return int(v) + 1
}

// Package ilp models 0/1 integer linear programs behind an engine
// interface, so the concrete optimization library stays swappable.
package ilp

import "context"

// Var identifies a binary decision variable within one Model.
type Var int

// Sense is the comparison direction of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// Term is one coefficient-variable product in a linear expression.
type Term struct {
	Var   Var
	Coeff int
}

// Constraint is a linear constraint sum(terms) <sense> RHS over binary variables.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   int
}

// Model is a 0/1 integer linear program: binary variables, linear
// constraints and an optional linear objective to minimize.
type Model struct {
	names       []string
	constraints []Constraint
	objective   []Term
}

func NewModel() *Model {
	return &Model{}
}

// AddBinary declares a binary variable and returns its handle.
func (m *Model) AddBinary(name string) Var {
	m.names = append(m.names, name)
	return Var(len(m.names) - 1)
}

// NumVars is the number of declared variables.
func (m *Model) NumVars() int {
	return len(m.names)
}

// VarName returns the name a variable was declared with.
func (m *Model) VarName(v Var) string {
	if int(v) < 0 || int(v) >= len(m.names) {
		return ""
	}
	return m.names[v]
}

// AddConstraint appends a constraint to the model.
func (m *Model) AddConstraint(c Constraint) {
	m.constraints = append(m.constraints, c)
}

// NumConstraints is the number of constraints added so far.
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// Constraints returns the constraints added so far, in insertion order.
func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// SetObjective sets the linear expression to minimize. All coefficients
// must be non-negative. Without an objective the model is pure feasibility.
func (m *Model) SetObjective(terms []Term) {
	m.objective = terms
}

// HasObjective reports whether a minimization objective is set.
func (m *Model) HasObjective() bool {
	return len(m.objective) > 0
}

// Status is the verdict of one engine invocation.
type Status int

const (
	StatusUndefined Status = iota
	StatusOptimal
	StatusInfeasible
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusTimedOut:
		return "TIMED_OUT"
	default:
		return "UNDEFINED"
	}
}

// Solution is the engine's answer. Values is indexed by Var and only
// meaningful when Status is StatusOptimal.
type Solution struct {
	Status    Status
	Values    []bool
	Objective int
}

// Value reads a variable's binding from the solution.
func (s *Solution) Value(v Var) bool {
	if s == nil || int(v) < 0 || int(v) >= len(s.Values) {
		return false
	}
	return s.Values[v]
}

// Engine solves a Model within the lifetime of the passed context. The
// feasibility verdict is deterministic for identical models; which of
// several equally optimal assignments is returned is engine-defined.
type Engine interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

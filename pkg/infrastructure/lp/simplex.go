package lp

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultTolerance is the reduced-cost tolerance handed to the simplex
const DefaultTolerance = 1e-10

// Status is the outcome of a solve
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusError      Status = "error"
	StatusTimeout    Status = "timeout"
)

// Solution holds the variable values of a solve. Values are only meaningful when Status is optimal.
type Solution struct {
	Status    Status
	Objective float64
	values    map[string]float64
}

// NewSolution creates a solution, for Solver implementations outside this package
func NewSolution(status Status, objective float64, values map[string]float64) *Solution {
	copied := make(map[string]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Solution{Status: status, Objective: objective, values: copied}
}

// Value returns the value of a variable, zero when unknown
func (s *Solution) Value(name string) float64 {
	return s.values[name]
}

// Values returns a copy of all variable values
func (s *Solution) Values() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Solver solves a Problem
type Solver interface {
	Solve(ctx context.Context, problem *Problem) (*Solution, error)
}

// SimplexSolver solves problems with gonum's dense simplex implementation
type SimplexSolver struct {
	tolerance float64
}

// NewSimplexSolver creates a solver; a non-positive tolerance selects DefaultTolerance
func NewSimplexSolver(tolerance float64) *SimplexSolver {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &SimplexSolver{tolerance: tolerance}
}

// Verify interface compliance
var _ Solver = (*SimplexSolver)(nil)

// Solve solves the problem with the default simplex solver
func Solve(ctx context.Context, problem *Problem) (*Solution, error) {
	return NewSimplexSolver(DefaultTolerance).Solve(ctx, problem)
}

// Solve solves the problem. Infeasible and unbounded programs are reported through
// Solution.Status with a nil error; a solver fault or an ended context returns an error.
// The simplex itself cannot be interrupted: on timeout it finishes in the background
// and its result is discarded.
func (s *SimplexSolver) Solve(ctx context.Context, problem *Problem) (*Solution, error) {
	if problem == nil {
		return &Solution{Status: StatusError}, fmt.Errorf("problem cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return &Solution{Status: StatusTimeout}, err
	}

	form, status := toStandardForm(problem)
	if status != "" {
		return &Solution{Status: status}, nil
	}
	if form.rows() == 0 {
		return s.solution(problem, form, make([]float64, form.cols())), nil
	}
	if form.cols() < form.rows() {
		return &Solution{Status: StatusError}, fmt.Errorf("problem %s has more constraints (%d) than columns (%d)",
			problem.name, form.rows(), form.cols())
	}

	type result struct {
		x   []float64
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("simplex panicked: %v", r)}
			}
		}()
		a := mat.NewDense(form.rows(), form.cols(), form.a)
		_, x, err := gonumlp.Simplex(form.c, a, form.b, s.tolerance, form.basis)
		done <- result{x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		return &Solution{Status: StatusTimeout}, ctx.Err()
	case r := <-done:
		switch {
		case r.err == nil:
			return s.solution(problem, form, r.x), nil
		case errors.Is(r.err, gonumlp.ErrInfeasible):
			return &Solution{Status: StatusInfeasible}, nil
		case errors.Is(r.err, gonumlp.ErrUnbounded):
			return &Solution{Status: StatusUnbounded}, nil
		default:
			return &Solution{Status: StatusError}, fmt.Errorf("simplex failed for problem %s: %w", problem.name, r.err)
		}
	}
}

func (s *SimplexSolver) solution(problem *Problem, form *standardForm, x []float64) *Solution {
	values := make(map[string]float64, len(problem.variables))
	for _, name := range problem.variables {
		values[name] = 0
	}
	for k, j := range form.active {
		v := x[k]
		if v < 0 && v > -s.tolerance*1e3 {
			v = 0
		}
		values[problem.variables[j]] = v
	}

	var objective float64
	for _, t := range problem.objective {
		objective += t.Coef * values[t.Var]
	}
	return &Solution{Status: StatusOptimal, Objective: objective, values: values}
}

// standardForm is minimize cᵀx s.t. Ax = b, x >= 0 with A stored row-major
type standardForm struct {
	c      []float64
	a      []float64
	b      []float64
	basis  []int
	active []int // problem variable index of each structural column
	width  int
}

func (f *standardForm) rows() int { return len(f.b) }
func (f *standardForm) cols() int { return f.width }

// toStandardForm converts the problem. A non-empty status means the problem was
// decided without running the simplex.
func toStandardForm(p *Problem) (*standardForm, Status) {
	n := len(p.variables)

	cost := make([]float64, n)
	for _, t := range p.objective {
		if p.direction == Maximize {
			cost[p.index[t.Var]] -= t.Coef
		} else {
			cost[p.index[t.Var]] += t.Coef
		}
	}

	dense := make([][]float64, len(p.constraints))
	used := make([]bool, n)
	for i, c := range p.constraints {
		row := make([]float64, n)
		for _, t := range c.Terms {
			row[p.index[t.Var]] += t.Coef
		}
		for j, v := range row {
			if v != 0 {
				used[j] = true
			}
		}
		dense[i] = row
	}

	// a variable outside every constraint sits at zero unless it improves the objective forever
	var active []int
	for j := 0; j < n; j++ {
		if used[j] {
			active = append(active, j)
			continue
		}
		if cost[j] < 0 {
			return nil, StatusUnbounded
		}
	}

	type row struct {
		coef  []float64
		sense Sense
		rhs   float64
	}
	var rows []row
	for i, c := range p.constraints {
		coef := make([]float64, len(active))
		nonZero := false
		for k, j := range active {
			coef[k] = dense[i][j]
			if coef[k] != 0 {
				nonZero = true
			}
		}
		sense, rhs := c.Sense, c.RHS
		if !nonZero {
			if !zeroSatisfies(sense, rhs) {
				return nil, StatusInfeasible
			}
			continue
		}
		if rhs < 0 {
			for k := range coef {
				coef[k] = -coef[k]
			}
			rhs = -rhs
			switch sense {
			case LessOrEqual:
				sense = GreaterOrEqual
			case GreaterOrEqual:
				sense = LessOrEqual
			}
		}
		rows = append(rows, row{coef: coef, sense: sense, rhs: rhs})
	}

	slacks := 0
	allLE := true
	for _, r := range rows {
		if r.sense != Equal {
			slacks++
		}
		if r.sense != LessOrEqual {
			allLE = false
		}
	}

	width := len(active) + slacks
	form := &standardForm{
		c:      make([]float64, width),
		a:      make([]float64, len(rows)*width),
		b:      make([]float64, len(rows)),
		active: active,
		width:  width,
	}
	for k, j := range active {
		form.c[k] = cost[j]
	}

	slackCol := len(active)
	for i, r := range rows {
		copy(form.a[i*width:], r.coef)
		form.b[i] = r.rhs
		switch r.sense {
		case LessOrEqual:
			form.a[i*width+slackCol] = 1
			if allLE {
				form.basis = append(form.basis, slackCol)
			}
			slackCol++
		case GreaterOrEqual:
			form.a[i*width+slackCol] = -1
			slackCol++
		}
	}
	if !allLE {
		form.basis = nil
	}
	return form, ""
}

func zeroSatisfies(sense Sense, rhs float64) bool {
	switch sense {
	case LessOrEqual:
		return 0 <= rhs
	case GreaterOrEqual:
		return 0 >= rhs
	default:
		return rhs == 0
	}
}

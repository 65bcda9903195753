// Package allocation distributes a labor-hour budget across products with a
// linear program that maximizes total units produced.
package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/lp"
	"github.com/vsinha/prodplan/pkg/infrastructure/tracing"
)

const (
	// DefaultSolveTimeout bounds a single solve
	DefaultSolveTimeout = 30 * time.Second
	// DefaultTolerance is the slack allowed when re-checking capacity and quantity caps after a solve
	DefaultTolerance = 1e-6
	// HoursSnap is how close solver output must be to a whole hour to be read as that hour.
	// It sits one order of magnitude above the simplex tolerance.
	HoursSnap = 10 * lp.DefaultTolerance

	capacityConstraint = "labor_capacity"
)

// Allocator solves the labor-hour allocation problem
type Allocator struct {
	solver       lp.Solver
	logger       *log.Logger
	solveTimeout time.Duration
	tolerance    float64
}

// Option configures an Allocator
type Option func(*Allocator)

// WithLogger sets the logger used for solver diagnostics
func WithLogger(logger *log.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSolveTimeout bounds the wall-clock time of one solve
func WithSolveTimeout(d time.Duration) Option {
	return func(a *Allocator) {
		if d > 0 {
			a.solveTimeout = d
		}
	}
}

// WithTolerance sets the post-solve invariant tolerance
func WithTolerance(eps float64) Option {
	return func(a *Allocator) {
		if eps > 0 {
			a.tolerance = eps
		}
	}
}

// WithSolver replaces the LP solver
func WithSolver(solver lp.Solver) Option {
	return func(a *Allocator) {
		if solver != nil {
			a.solver = solver
		}
	}
}

// NewAllocator creates an allocator backed by the simplex solver
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		solver:       lp.NewSimplexSolver(lp.DefaultTolerance),
		logger:       log.Default(),
		solveTimeout: DefaultSolveTimeout,
		tolerance:    DefaultTolerance,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns the hours to spend on each product, in input order.
//
// The program has one variable h_p >= 0 per product and maximizes Σ throughput_p * h_p subject to
//
//	Σ staff_p * h_p       <= totalLaborHours   (capacity)
//	throughput_p * h_p    <= requested_p        (no overproduction, per product)
//
// A product may receive zero hours; there is no fairness floor. Ties between optimal
// solutions are broken by the solver.
func (a *Allocator) Allocate(
	ctx context.Context,
	products []entities.ProductParams,
	totalLaborHours float64,
) (result *entities.Allocation, err error) {
	ctx, span := tracing.StartSpan(ctx, "allocation.solve", "")
	span.WithAttributes(map[string]string{
		"allocation.products":          strconv.Itoa(len(products)),
		"allocation.total_labor_hours": strconv.FormatFloat(totalLaborHours, 'f', -1, 64),
	})
	defer func() { tracing.EndSpan(span, err) }()

	if err := validate(products, totalLaborHours); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return entities.NewAllocation(0), nil
	}

	problem, err := buildProblem(products, totalLaborHours)
	if err != nil {
		return nil, a.fail(products, totalLaborHours, &entities.SolverError{Status: entities.SolverStatusError, Err: err})
	}

	solveCtx, cancel := context.WithTimeout(ctx, a.solveTimeout)
	defer cancel()

	solution, err := a.solver.Solve(solveCtx, problem)
	if err != nil {
		status := entities.SolverStatusError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = entities.SolverStatusTimeout
		}
		return nil, a.fail(products, totalLaborHours, &entities.SolverError{Status: status, Err: err})
	}
	if solution.Status != lp.StatusOptimal {
		return nil, a.fail(products, totalLaborHours, &entities.SolverError{Status: solverStatus(solution.Status)})
	}

	result = entities.NewAllocation(len(products))
	result.Objective = solution.Objective
	for _, p := range products {
		hours := solution.Value(variableName(p.ID))
		if hours < 0 && hours >= -a.tolerance {
			hours = 0
		}
		if whole := math.Round(hours); math.Abs(hours-whole) <= HoursSnap {
			hours = whole
		}
		if err := result.Add(entities.AllocationResult{ProductID: p.ID, HoursAllocated: hours}); err != nil {
			return nil, a.fail(products, totalLaborHours, &entities.SolverError{Status: entities.SolverStatusInvariant, Err: err})
		}
	}

	if err := a.checkInvariants(products, totalLaborHours, result); err != nil {
		return nil, a.fail(products, totalLaborHours, &entities.SolverError{Status: entities.SolverStatusInvariant, Err: err})
	}

	a.logger.Printf("[INFO] allocated %.2f of %.2f labor hours across %d products (objective %.2f units)",
		result.LaborHoursUsed(products), totalLaborHours, len(products), result.Objective)
	return result, nil
}

func validate(products []entities.ProductParams, totalLaborHours float64) error {
	if math.IsNaN(totalLaborHours) || math.IsInf(totalLaborHours, 0) || totalLaborHours <= 0 {
		return entities.NewInvalidInputError("allocation", "total_labor_hours", "must be a positive number, got %v", totalLaborHours)
	}

	seen := make(map[entities.ProductID]bool, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return entities.NewInvalidInputError("allocation", "products", "duplicate product id %s", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

func buildProblem(products []entities.ProductParams, totalLaborHours float64) (*lp.Problem, error) {
	builder := lp.NewBuilder("labor_allocation")

	objective := make([]lp.Term, 0, len(products))
	capacity := make([]lp.Term, 0, len(products))
	for _, p := range products {
		name := variableName(p.ID)
		throughput := p.ThroughputPerHour.InexactFloat64()

		builder.Variable(name)
		objective = append(objective, lp.T(name, throughput))
		capacity = append(capacity, lp.T(name, p.StaffRequired.InexactFloat64()))
		builder.Constraint("demand_"+string(p.ID), lp.LessOrEqual, float64(p.RequestedQuantity), lp.T(name, throughput))
	}

	builder.Objective(lp.Maximize, objective...)
	builder.Constraint(capacityConstraint, lp.LessOrEqual, totalLaborHours, capacity...)
	return builder.Build()
}

func (a *Allocator) checkInvariants(products []entities.ProductParams, totalLaborHours float64, result *entities.Allocation) error {
	used := result.LaborHoursUsed(products)
	if used > totalLaborHours+a.tolerance*math.Max(1, totalLaborHours) {
		return fmt.Errorf("solution uses %v labor hours, budget is %v", used, totalLaborHours)
	}

	for _, p := range products {
		r, _ := result.Get(p.ID)
		produced := p.ThroughputPerHour.InexactFloat64() * r.HoursAllocated
		requested := float64(p.RequestedQuantity)
		if produced > requested+a.tolerance*math.Max(1, requested) {
			return fmt.Errorf("solution produces %v units of %s, requested %v", produced, p.ID, requested)
		}
	}
	return nil
}

// fail logs a snapshot of the solver input for diagnosis and returns err
func (a *Allocator) fail(products []entities.ProductParams, totalLaborHours float64, err *entities.SolverError) error {
	snapshot, marshalErr := json.Marshal(struct {
		TotalLaborHours float64                  `json:"total_labor_hours"`
		Products        []entities.ProductParams `json:"products"`
	}{totalLaborHours, products})
	if marshalErr != nil {
		snapshot = []byte(marshalErr.Error())
	}
	a.logger.Printf("[ERROR] %v; input: %s", err, snapshot)
	return err
}

func solverStatus(status lp.Status) string {
	switch status {
	case lp.StatusInfeasible:
		return entities.SolverStatusInfeasible
	case lp.StatusUnbounded:
		return entities.SolverStatusUnbounded
	case lp.StatusTimeout:
		return entities.SolverStatusTimeout
	default:
		return entities.SolverStatusError
	}
}

func variableName(id entities.ProductID) string {
	return "h_" + string(id)
}

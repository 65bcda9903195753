package entities

import (
	"fmt"
	"time"
)

// ProductNotFoundError reports an order whose product description is absent from the catalog
type ProductNotFoundError struct {
	Description string
	Line        int // source line of the order, 0 when unknown
}

func (e *ProductNotFoundError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("product description '%s' not found in master data (order line %d)", e.Description, e.Line)
	}
	return fmt.Sprintf("product description '%s' not found in master data", e.Description)
}

// InvalidInputError reports a record that violates its invariants
type InvalidInputError struct {
	Entity string
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invalid %s %s: %s", e.Entity, e.Field, e.Reason)
}

// NewInvalidInputError creates an InvalidInputError with a formatted reason
func NewInvalidInputError(entity, field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{
		Entity: entity,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Solver statuses reported through SolverError
const (
	SolverStatusInfeasible = "infeasible"
	SolverStatusUnbounded  = "unbounded"
	SolverStatusTimeout    = "timeout"
	SolverStatusError      = "error"
	SolverStatusInvariant  = "invariant_violation"
)

// SolverError is a fatal internal fault of the allocation solve
type SolverError struct {
	Status string
	Err    error
}

func (e *SolverError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("solver failed with status %s", e.Status)
	}
	return fmt.Sprintf("solver failed with status %s: %v", e.Status, e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}

// SchedulingError marks a product whose computed completion date exceeds its due date.
// It is terminal for that product within a run but never aborts the run.
type SchedulingError struct {
	ProductID   ProductID `json:"product_id"`
	Description string    `json:"description"`
	EndDate     time.Time `json:"end_date"`
	DueDate     time.Time `json:"due_date"`
}

func (e SchedulingError) Error() string {
	return fmt.Sprintf("scheduling not possible for '%s': end date %s exceeds due date %s",
		e.Description,
		e.EndDate.Format(DateLayout),
		e.DueDate.Format(DateLayout))
}

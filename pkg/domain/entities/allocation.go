package entities

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// AllocationResult holds the solver-determined labor hours for one product
type AllocationResult struct {
	ProductID      ProductID `json:"product_id"`
	HoursAllocated float64   `json:"hours_allocated"`
}

// RoundedHours returns ceil(hours allocated); a partial hour consumes a full hour on the floor
func (r AllocationResult) RoundedHours() int64 {
	if r.HoursAllocated <= 0 {
		return 0
	}
	return int64(math.Ceil(r.HoursAllocated))
}

// PlannedQuantity returns floor(throughput * rounded hours)
func (r AllocationResult) PlannedQuantity(throughputPerHour decimal.Decimal) Quantity {
	units := throughputPerHour.Mul(decimal.NewFromInt(r.RoundedHours())).Floor()
	return Quantity(units.IntPart())
}

// Allocation is the ordered set of allocation results of one planning run.
// Results keep the order of the products handed to the allocator.
type Allocation struct {
	Objective float64

	results []AllocationResult
	index   map[ProductID]int
}

// NewAllocation creates an empty allocation
func NewAllocation(expectedProducts int) *Allocation {
	return &Allocation{
		results: make([]AllocationResult, 0, expectedProducts),
		index:   make(map[ProductID]int, expectedProducts),
	}
}

// Add appends a result; a product may only be allocated once
func (a *Allocation) Add(result AllocationResult) error {
	if _, exists := a.index[result.ProductID]; exists {
		return fmt.Errorf("duplicate allocation for product %s", result.ProductID)
	}
	if result.HoursAllocated < 0 || math.IsNaN(result.HoursAllocated) || math.IsInf(result.HoursAllocated, 0) {
		return fmt.Errorf("hours allocated must be a non-negative finite number for product %s, got %v",
			result.ProductID, result.HoursAllocated)
	}
	a.index[result.ProductID] = len(a.results)
	a.results = append(a.results, result)
	return nil
}

// Get returns the allocation result for a product
func (a *Allocation) Get(id ProductID) (AllocationResult, bool) {
	i, ok := a.index[id]
	if !ok {
		return AllocationResult{}, false
	}
	return a.results[i], true
}

// Results returns a copy of all results in allocation order
func (a *Allocation) Results() []AllocationResult {
	out := make([]AllocationResult, len(a.results))
	copy(out, a.results)
	return out
}

// Len returns the number of allocated products
func (a *Allocation) Len() int {
	return len(a.results)
}

// LaborHoursUsed returns Σ staff * hours over the given products
func (a *Allocation) LaborHoursUsed(products []ProductParams) float64 {
	var total float64
	for _, p := range products {
		if r, ok := a.Get(p.ID); ok {
			total += p.StaffRequired.InexactFloat64() * r.HoursAllocated
		}
	}
	return total
}

// UnitsProduced returns Σ throughput * hours over the given products (the LP objective)
func (a *Allocation) UnitsProduced(products []ProductParams) float64 {
	var total float64
	for _, p := range products {
		if r, ok := a.Get(p.ID); ok {
			total += p.ThroughputPerHour.InexactFloat64() * r.HoursAllocated
		}
	}
	return total
}

// MarshalJSON renders the allocation as its ordered results
func (a *Allocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Objective float64            `json:"objective"`
		Results   []AllocationResult `json:"results"`
	}{
		Objective: a.Objective,
		Results:   a.results,
	})
}

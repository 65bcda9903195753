package dto

import (
	"time"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// PlanResult contains the complete output of a planning run
type PlanResult struct {
	RunID            string                     `json:"run_id"`
	Today            time.Time                  `json:"today"`
	TotalLaborHours  float64                    `json:"total_labor_hours"`
	MaxShiftsPerDay  int                        `json:"max_shifts_per_day"`
	Attainment       string                     `json:"attainment_rounding"`
	Objective        float64                    `json:"objective"`
	LaborHoursUsed   float64                    `json:"labor_hours_used"`
	Allocations      []AllocationView           `json:"allocations"`
	Timeline         []entities.TimelineEntry   `json:"timeline"`
	SchedulingErrors []entities.SchedulingError `json:"scheduling_errors"`
	Rejected         []OrderRejection           `json:"rejected"`
	Merged           []MergedOrder              `json:"merged"`
	Events           []EventRecord              `json:"events,omitempty"`
}

// AllocationView is one product's allocation joined with its catalog data
type AllocationView struct {
	ProductID         entities.ProductID `json:"product_id"`
	Description       string             `json:"description"`
	RequestedQuantity entities.Quantity  `json:"requested_quantity"`
	HoursAllocated    float64            `json:"hours_allocated"`
	LaborHours        float64            `json:"labor_hours"`
	Units             float64            `json:"units"`
}

// OrderRejection is an order line excluded from planning
type OrderRejection struct {
	Line        int    `json:"line"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// MergedOrder records order lines that named the same product and were planned as one
type MergedOrder struct {
	ProductID   entities.ProductID `json:"product_id"`
	Description string             `json:"description"`
	Lines       []int              `json:"lines"`
	Quantity    entities.Quantity  `json:"quantity"`
	DueDate     time.Time          `json:"due_date"`
}

// EventRecord is a journaled event of the run
type EventRecord struct {
	Version   int         `json:"version"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Scheduled returns the number of products on the timeline
func (r *PlanResult) Scheduled() int {
	return len(r.Timeline)
}

// Unschedulable returns the number of products that miss their due date
func (r *PlanResult) Unschedulable() int {
	return len(r.SchedulingErrors)
}

// ProductsPlanned returns the number of products that reached the allocator
func (r *PlanResult) ProductsPlanned() int {
	return len(r.Allocations)
}

package events

import (
	"time"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// Event types journaled by a planning run
const (
	OrderResolvedEvent        = "order.resolved"
	OrderRejectedEvent        = "order.rejected"
	OrderMergedEvent          = "order.merged"
	ProductAllocatedEvent     = "product.allocated"
	ProductScheduledEvent     = "product.scheduled"
	ProductUnschedulableEvent = "product.unschedulable"
	PlanCompletedEvent        = "plan.completed"
)

// AllPlanningEvents lists every planning event type
var AllPlanningEvents = []string{
	OrderResolvedEvent,
	OrderRejectedEvent,
	OrderMergedEvent,
	ProductAllocatedEvent,
	ProductScheduledEvent,
	ProductUnschedulableEvent,
	PlanCompletedEvent,
}

type OrderResolved struct {
	Line        int                `json:"line"`
	Description string             `json:"description"`
	ProductID   entities.ProductID `json:"product_id"`
}

type OrderRejected struct {
	Line        int    `json:"line"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

type OrderMerged struct {
	ProductID entities.ProductID `json:"product_id"`
	Lines     []int              `json:"lines"`
	Quantity  entities.Quantity  `json:"quantity"`
	DueDate   time.Time          `json:"due_date"`
}

type ProductAllocated struct {
	ProductID      entities.ProductID `json:"product_id"`
	HoursAllocated float64            `json:"hours_allocated"`
}

type ProductScheduled struct {
	Entry entities.TimelineEntry `json:"entry"`
}

type ProductUnschedulable struct {
	Error entities.SchedulingError `json:"error"`
}

type PlanCompleted struct {
	Objective      float64 `json:"objective"`
	LaborHoursUsed float64 `json:"labor_hours_used"`
	Scheduled      int     `json:"scheduled"`
	Unschedulable  int     `json:"unschedulable"`
	RejectedOrders int     `json:"rejected_orders"`
}

package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/allocation"
	"github.com/vsinha/prodplan/pkg/application/services/scheduling"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/tracing"
)

// UnknownProductPolicy decides what an order that cannot be planned does to the run
type UnknownProductPolicy int

const (
	// SkipUnknown excludes the order and reports it in PlanResult.Rejected
	SkipUnknown UnknownProductPolicy = iota
	// AbortOnUnknown fails the whole run on the first such order
	AbortOnUnknown
)

// String method for UnknownProductPolicy enum
func (p UnknownProductPolicy) String() string {
	switch p {
	case SkipUnknown:
		return "skip"
	case AbortOnUnknown:
		return "abort"
	default:
		return "unknown"
	}
}

// ParseUnknownProductPolicy parses "skip" or "abort"
func ParseUnknownProductPolicy(s string) (UnknownProductPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipUnknown, nil
	case "abort":
		return AbortOnUnknown, nil
	default:
		return SkipUnknown, fmt.Errorf("invalid unknown product policy: %s (expected skip or abort)", s)
	}
}

// PlanningRequest holds the run parameters
type PlanningRequest struct {
	Today                time.Time
	TotalLaborHours      float64
	MaxShiftsPerDay      int // 0 selects the scheduler default
	UnknownProductPolicy UnknownProductPolicy
	Attainment           entities.AttainmentRounding
}

// PlanningOrchestrator runs order resolution, allocation and scheduling as one planning run
type PlanningOrchestrator struct {
	allocator   *allocation.Allocator
	catalogRepo repositories.CatalogRepository
	orderRepo   repositories.OrderRepository
	eventStore  events.EventStore
	logger      *log.Logger
	now         func() time.Time
}

// NewPlanningOrchestrator creates a new planning orchestrator
func NewPlanningOrchestrator(
	allocator *allocation.Allocator,
	catalogRepo repositories.CatalogRepository,
	orderRepo repositories.OrderRepository,
	eventStore events.EventStore,
) *PlanningOrchestrator {
	if eventStore == nil {
		eventStore = events.NewInMemoryEventStore()
	}
	return &PlanningOrchestrator{
		allocator:   allocator,
		catalogRepo: catalogRepo,
		orderRepo:   orderRepo,
		eventStore:  eventStore,
		logger:      log.Default(),
		now:         time.Now,
	}
}

// WithLogger sets the run logger
func (po *PlanningOrchestrator) WithLogger(logger *log.Logger) *PlanningOrchestrator {
	if logger != nil {
		po.logger = logger
	}
	return po
}

// WithClock sets the clock used to stamp journal events
func (po *PlanningOrchestrator) WithClock(now func() time.Time) *PlanningOrchestrator {
	if now != nil {
		po.now = now
	}
	return po
}

// Run performs one planning run. Orders naming the same product are merged before
// allocation; orders that fail validation or catalog lookup are handled per
// request.UnknownProductPolicy. Scheduling errors never fail the run.
func (po *PlanningOrchestrator) Run(ctx context.Context, request PlanningRequest) (result *dto.PlanResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "planning.run", "")
	defer func() { tracing.EndSpan(span, err) }()

	if request.Today.IsZero() {
		return nil, entities.NewInvalidInputError("planning request", "today", "is required")
	}
	schedulerConfig := scheduling.DefaultConfig()
	if request.MaxShiftsPerDay != 0 {
		schedulerConfig.MaxShiftsPerDay = request.MaxShiftsPerDay
	}
	scheduler, err := scheduling.NewSchedulerWithConfig(schedulerConfig)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	today := entities.Day(request.Today)
	span.WithAttributes(map[string]string{
		"planning.run_id": runID,
		"planning.today":  today.Format(entities.DateLayout),
		"planning.policy": request.UnknownProductPolicy.String(),
	})

	result = &dto.PlanResult{
		RunID:            runID,
		Today:            today,
		TotalLaborHours:  request.TotalLaborHours,
		MaxShiftsPerDay:  schedulerConfig.MaxShiftsPerDay,
		Attainment:       request.Attainment.String(),
		Allocations:      []dto.AllocationView{},
		Timeline:         []entities.TimelineEntry{},
		SchedulingErrors: []entities.SchedulingError{},
		Rejected:         []dto.OrderRejection{},
		Merged:           []dto.MergedOrder{},
	}

	// Step 1: Resolve orders against the catalog
	demand, err := po.resolveOrders(runID, request.UnknownProductPolicy, result)
	if err != nil {
		return nil, err
	}

	// Step 2: Build allocator input in first-seen order
	products := make([]entities.ProductParams, 0, len(demand))
	due := make(scheduling.DueDates, len(demand))
	for _, d := range demand {
		record, err := po.catalogRepo.GetProduct(d.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", d.ProductID, err)
		}
		params, err := entities.NewProductParamsFromRecord(record, d.Quantity)
		if err != nil {
			return nil, err
		}
		products = append(products, *params)
		due[d.ProductID] = d.DueDate
	}

	// Step 3: Allocate labor hours
	alloc, err := po.allocator.Allocate(ctx, products, request.TotalLaborHours)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate labor hours: %w", err)
	}
	result.Objective = alloc.Objective
	result.LaborHoursUsed = alloc.LaborHoursUsed(products)
	for _, p := range products {
		r, _ := alloc.Get(p.ID)
		staff, throughput := p.StaffRequired.InexactFloat64(), p.ThroughputPerHour.InexactFloat64()
		result.Allocations = append(result.Allocations, dto.AllocationView{
			ProductID:         p.ID,
			Description:       p.Description,
			RequestedQuantity: p.RequestedQuantity,
			HoursAllocated:    r.HoursAllocated,
			LaborHours:        staff * r.HoursAllocated,
			Units:             throughput * r.HoursAllocated,
		})
		po.record(runID, events.ProductAllocatedEvent, events.ProductAllocated{
			ProductID:      p.ID,
			HoursAllocated: r.HoursAllocated,
		})
	}

	// Step 4: Schedule
	schedule, err := scheduler.Schedule(products, alloc, due, today)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule: %w", err)
	}
	result.Timeline = schedule.Timeline
	result.SchedulingErrors = schedule.Errors
	for _, entry := range schedule.Timeline {
		po.record(runID, events.ProductScheduledEvent, events.ProductScheduled{Entry: entry})
	}
	for _, schedErr := range schedule.Errors {
		po.logger.Printf("[WARN] %v", schedErr)
		po.record(runID, events.ProductUnschedulableEvent, events.ProductUnschedulable{Error: schedErr})
	}

	po.record(runID, events.PlanCompletedEvent, events.PlanCompleted{
		Objective:      result.Objective,
		LaborHoursUsed: result.LaborHoursUsed,
		Scheduled:      len(result.Timeline),
		Unschedulable:  len(result.SchedulingErrors),
		RejectedOrders: len(result.Rejected),
	})

	journal, err := po.eventStore.ReadEvents(runID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read run journal: %w", err)
	}
	for _, e := range journal {
		result.Events = append(result.Events, dto.EventRecord{
			Version:   e.Version(),
			Type:      e.Type(),
			Timestamp: e.Timestamp(),
			Data:      e.Data(),
		})
	}

	span.WithAttributes(map[string]string{
		"planning.scheduled":     strconv.Itoa(len(result.Timeline)),
		"planning.unschedulable": strconv.Itoa(len(result.SchedulingErrors)),
	})
	po.logger.Printf("[INFO] run %s: %d products planned, %d scheduled, %d unschedulable, %d orders rejected",
		runID, len(products), len(result.Timeline), len(result.SchedulingErrors), len(result.Rejected))
	return result, nil
}

// resolveOrders validates and resolves every order, merging lines that name the same product
func (po *PlanningOrchestrator) resolveOrders(
	runID string,
	policy UnknownProductPolicy,
	result *dto.PlanResult,
) ([]*entities.ResolvedOrder, error) {
	orders, err := po.orderRepo.GetOrders()
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	var demand []*entities.ResolvedOrder
	byProduct := make(map[entities.ProductID]*entities.ResolvedOrder)

	for _, order := range orders {
		record, err := po.resolve(order)
		if err != nil {
			if policy == AbortOnUnknown {
				return nil, fmt.Errorf("order line %d: %w", order.Line, err)
			}
			po.logger.Printf("[WARN] skipping order line %d: %v", order.Line, err)
			result.Rejected = append(result.Rejected, dto.OrderRejection{
				Line:        order.Line,
				Description: order.ProductDescription,
				Reason:      err.Error(),
			})
			po.record(runID, events.OrderRejectedEvent, events.OrderRejected{
				Line:        order.Line,
				Description: order.ProductDescription,
				Reason:      err.Error(),
			})
			continue
		}

		po.record(runID, events.OrderResolvedEvent, events.OrderResolved{
			Line:        order.Line,
			Description: order.ProductDescription,
			ProductID:   record.ProductID,
		})

		if existing, ok := byProduct[record.ProductID]; ok {
			existing.Merge(order)
			continue
		}
		resolved := &entities.ResolvedOrder{
			ProductID:   record.ProductID,
			Description: record.Description,
			Quantity:    order.Quantity,
			DueDate:     entities.Day(order.DueDate),
			Lines:       []int{order.Line},
		}
		byProduct[record.ProductID] = resolved
		demand = append(demand, resolved)
	}

	for _, d := range demand {
		if len(d.Lines) < 2 {
			continue
		}
		po.logger.Printf("[INFO] merged order lines %v for product %s", d.Lines, d.ProductID)
		result.Merged = append(result.Merged, dto.MergedOrder{
			ProductID:   d.ProductID,
			Description: d.Description,
			Lines:       append([]int(nil), d.Lines...),
			Quantity:    d.Quantity,
			DueDate:     d.DueDate,
		})
		po.record(runID, events.OrderMergedEvent, events.OrderMerged{
			ProductID: d.ProductID,
			Lines:     append([]int(nil), d.Lines...),
			Quantity:  d.Quantity,
			DueDate:   d.DueDate,
		})
	}
	return demand, nil
}

func (po *PlanningOrchestrator) resolve(order *entities.OrderRequest) (*entities.CatalogRecord, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	record, err := po.catalogRepo.Resolve(order.ProductDescription)
	if err != nil {
		var notFound *entities.ProductNotFoundError
		if errors.As(err, &notFound) {
			notFound.Line = order.Line
		}
		return nil, err
	}
	return record, nil
}

func (po *PlanningOrchestrator) record(runID, eventType string, data interface{}) {
	if err := po.eventStore.AppendEvent(runID, events.NewEvent(eventType, runID, data, po.now())); err != nil {
		po.logger.Printf("[WARN] run %s: %v", runID, err)
	}
}

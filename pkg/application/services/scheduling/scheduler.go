// Package scheduling turns continuous hour allocations into shift and day
// windows and checks each window against its due date.
package scheduling

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// ShiftHours is the length of one production shift
const ShiftHours = 8

// DefaultMaxShiftsPerDay is the number of shifts a line runs per day unless configured
const DefaultMaxShiftsPerDay = 3

// DueDates maps each product to the date its order must be complete
type DueDates map[entities.ProductID]time.Time

// Config holds scheduler settings
type Config struct {
	MaxShiftsPerDay int
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{MaxShiftsPerDay: DefaultMaxShiftsPerDay}
}

// Schedule partitions the products of one run: each lands in Timeline or in Errors, never both
type Schedule struct {
	Timeline []entities.TimelineEntry  `json:"timeline"`
	Errors   []entities.SchedulingError `json:"errors"`
}

// Scheduler computes production windows
type Scheduler struct {
	config Config
}

// NewScheduler creates a scheduler with default configuration
func NewScheduler() *Scheduler {
	return &Scheduler{config: DefaultConfig()}
}

// NewSchedulerWithConfig creates a scheduler with custom configuration
func NewSchedulerWithConfig(config Config) (*Scheduler, error) {
	if config.MaxShiftsPerDay <= 0 {
		return nil, entities.NewInvalidInputError("scheduler", "max_shifts_per_day", "must be a positive integer, got %d", config.MaxShiftsPerDay)
	}
	return &Scheduler{config: config}, nil
}

// Config returns the scheduler configuration
func (s *Scheduler) Config() Config {
	return s.config
}

// Schedule builds the timeline for products in input order. Every product starts the
// day after today; a product that cannot finish by its due date is reported as a
// SchedulingError and the run continues. A product with no allocated hours yields an
// idle entry that ends on today, so it fails only when its due date is already past.
//
// A product without an allocation result or due date is a caller error and fails the call.
func (s *Scheduler) Schedule(
	products []entities.ProductParams,
	allocation *entities.Allocation,
	due DueDates,
	today time.Time,
) (*Schedule, error) {
	if allocation == nil {
		return nil, fmt.Errorf("allocation cannot be nil")
	}

	schedule := &Schedule{
		Timeline: make([]entities.TimelineEntry, 0, len(products)),
		Errors:   []entities.SchedulingError{},
	}
	start := entities.Day(today).AddDate(0, 0, 1)

	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		result, ok := allocation.Get(p.ID)
		if !ok {
			return nil, entities.NewInvalidInputError("schedule", "allocation", "missing for product %s", p.ID)
		}
		dueDate, ok := due[p.ID]
		if !ok || dueDate.IsZero() {
			return nil, entities.NewInvalidInputError("schedule", "due_date", "missing for product %s", p.ID)
		}
		dueDate = entities.Day(dueDate)

		roundedHours := result.RoundedHours()
		shiftsNeeded := ceilDiv(roundedHours, ShiftHours)
		daysNeeded := ceilDiv(shiftsNeeded, int64(s.config.MaxShiftsPerDay))
		end := start.AddDate(0, 0, int(daysNeeded)-1)

		if end.After(dueDate) {
			schedule.Errors = append(schedule.Errors, entities.SchedulingError{
				ProductID:   p.ID,
				Description: p.Description,
				EndDate:     end,
				DueDate:     dueDate,
			})
			continue
		}

		planned := result.PlannedQuantity(p.ThroughputPerHour)
		schedule.Timeline = append(schedule.Timeline, entities.TimelineEntry{
			ProductID:         p.ID,
			Description:       p.Description,
			StartDate:         start,
			EndDate:           end,
			DueDate:           dueDate,
			AllocatedHours:    result.HoursAllocated,
			PlannedHours:      roundedHours,
			StaffRequired:     p.StaffRequired,
			ShiftsNeeded:      shiftsNeeded,
			DaysNeeded:        daysNeeded,
			RequestedQuantity: p.RequestedQuantity,
			PlannedQuantity:   planned,
			Attainment:        decimal.NewFromInt(int64(planned)).Div(decimal.NewFromInt(int64(p.RequestedQuantity))),
		})
	}

	return schedule, nil
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

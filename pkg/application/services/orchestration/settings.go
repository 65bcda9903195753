package orchestration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/allocation"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

// Settings are the parsed planning parameters of a prodplan.yml configuration
type Settings struct {
	TotalLaborHours      float64
	MaxShiftsPerDay      int
	UnknownProductPolicy UnknownProductPolicy
	Attainment           entities.AttainmentRounding
	DuplicatePolicy      memory.DuplicatePolicy
	SolveTimeout         time.Duration
}

// SettingsFromConfig validates cfg and parses its enumerations
func SettingsFromConfig(cfg *config.Config) (*Settings, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParseUnknownProductPolicy(cfg.Planning.UnknownProductPolicy)
	if err != nil {
		return nil, err
	}
	attainment, err := entities.ParseAttainmentRounding(cfg.Planning.AttainmentRounding)
	if err != nil {
		return nil, err
	}
	duplicates, err := memory.ParseDuplicatePolicy(cfg.Catalog.DuplicateDescriptions)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.SolveTimeout()
	if err != nil {
		return nil, err
	}
	return &Settings{
		TotalLaborHours:      cfg.Planning.TotalLaborHours,
		MaxShiftsPerDay:      cfg.Planning.MaxShiftsPerDay,
		UnknownProductPolicy: policy,
		Attainment:           attainment,
		DuplicatePolicy:      duplicates,
		SolveTimeout:         timeout,
	}, nil
}

// Request returns the planning request for the given day
func (s *Settings) Request(today time.Time) PlanningRequest {
	return PlanningRequest{
		Today:                today,
		TotalLaborHours:      s.TotalLaborHours,
		MaxShiftsPerDay:      s.MaxShiftsPerDay,
		UnknownProductPolicy: s.UnknownProductPolicy,
		Attainment:           s.Attainment,
	}
}

// PlanInput is the raw data of one planning run
type PlanInput struct {
	Catalog []*entities.CatalogRecord
	Orders  []*entities.OrderRequest
	Today   time.Time

	// Observer, when set, receives every journaled event of the run as it happens
	Observer events.EventHandler
}

// RunWithSettings loads fresh in-memory repositories from input and performs one planning run
func RunWithSettings(ctx context.Context, settings *Settings, input PlanInput, logger *log.Logger) (*dto.PlanResult, error) {
	if logger == nil {
		logger = log.Default()
	}

	catalogRepo := memory.NewCatalogRepository(len(input.Catalog), settings.DuplicatePolicy)
	if err := catalogRepo.LoadProducts(input.Catalog); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	orderRepo := memory.NewOrderRepository()
	if err := orderRepo.LoadOrders(input.Orders); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	allocator := allocation.NewAllocator(
		allocation.WithLogger(logger),
		allocation.WithSolveTimeout(settings.SolveTimeout),
	)
	journal := events.NewInMemoryEventStore()
	if input.Observer != nil {
		if err := journal.Subscribe(events.AllPlanningEvents, input.Observer); err != nil {
			return nil, err
		}
	}
	orchestrator := NewPlanningOrchestrator(allocator, catalogRepo, orderRepo, journal).
		WithLogger(logger)
	return orchestrator.Run(ctx, settings.Request(input.Today))
}

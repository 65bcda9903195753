package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

// Today is the reference date of every canned scenario
var Today = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

// DaysFromToday returns Today shifted by n days
func DaysFromToday(n int) time.Time {
	return Today.AddDate(0, 0, n)
}

// Product builds an active catalog record
func Product(id, description string, throughput, staff string) *entities.CatalogRecord {
	return &entities.CatalogRecord{
		ProductID:         entities.ProductID(id),
		Description:       description,
		ThroughputPerHour: decimal.RequireFromString(throughput),
		StaffRequired:     decimal.RequireFromString(staff),
		Status:            entities.Active,
	}
}

// Order builds an order line
func Order(line int, description string, quantity int64, due time.Time) *entities.OrderRequest {
	return &entities.OrderRequest{
		Line:               line,
		ProductDescription: description,
		Quantity:           entities.Quantity(quantity),
		DueDate:            entities.Day(due),
	}
}

// BuildRepositories loads the given records and orders into fresh memory repositories
func BuildRepositories(records []*entities.CatalogRecord, orders []*entities.OrderRequest) (*memory.CatalogRepository, *memory.OrderRepository) {
	catalogRepo := memory.NewCatalogRepository(len(records), memory.LastWins)
	if err := catalogRepo.LoadProducts(records); err != nil {
		panic(err)
	}
	orderRepo := memory.NewOrderRepository()
	if err := orderRepo.LoadOrders(orders); err != nil {
		panic(err)
	}
	return catalogRepo, orderRepo
}

// BuildTwoProductTestData is the two-product scenario: on a 100 labor-hour budget X fills
// its 500-unit order in 50 hours and Y takes the remaining 50 hours for 250 units.
func BuildTwoProductTestData() (*memory.CatalogRepository, *memory.OrderRepository) {
	return BuildRepositories(
		[]*entities.CatalogRecord{
			Product("X", "Product X", "10", "1"),
			Product("Y", "Product Y", "5", "1"),
		},
		[]*entities.OrderRequest{
			Order(2, "Product X", 500, DaysFromToday(30)),
			Order(3, "Product Y", 1000, DaysFromToday(30)),
		},
	)
}

// BuildSingleShiftTestData is one product needing exactly one 8-hour shift with two staff
func BuildSingleShiftTestData(due time.Time) (*memory.CatalogRepository, *memory.OrderRepository) {
	return BuildRepositories(
		[]*entities.CatalogRecord{Product("B", "Product B", "8", "2")},
		[]*entities.OrderRequest{Order(2, "Product B", 64, due)},
	)
}

// BuildSnackLineTestData is a packaging line with mixed throughputs, one unknown
// product, two lines for the same product and a due date that cannot be met
func BuildSnackLineTestData() (*memory.CatalogRepository, *memory.OrderRepository) {
	return BuildRepositories(
		[]*entities.CatalogRecord{
			Product("1001", "Greek Yogurt 12pk", "31.25", "4"),
			Product("1002", "Trail Mix Variety", "45", "3"),
			Product("1003", "Party Platter", "12.5", "5"),
			Product("1004", "Granola Bites", "60", "2"),
		},
		[]*entities.OrderRequest{
			Order(2, "Greek Yogurt 12pk", 2500, DaysFromToday(10)),
			Order(3, "Trail Mix Variety", 1800, DaysFromToday(7)),
			Order(4, "Seasonal Gift Box", 300, DaysFromToday(7)),
			Order(5, "Party Platter", 1500, DaysFromToday(1)),
			Order(6, "Granola Bites", 2400, DaysFromToday(12)),
			Order(7, "Greek Yogurt 12pk", 500, DaysFromToday(8)),
		},
	)
}

package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// Request payloads

type CatalogItem struct {
	ProductNumber     string  `json:"product_number"`
	Description       string  `json:"product_description"`
	ThroughputPerHour float64 `json:"qty_per_labour_hour"`
	Staff             float64 `json:"staff"`
	Status            string  `json:"status,omitempty" enum:"Active,Inactive"`
}

type OrderItem struct {
	ProductDescription string `json:"product_description"`
	Quantity           int64  `json:"quantity"`
	DueDate            string `json:"due_date" example:"2025-03-10"`
}

type CreatePlanRequest struct {
	Catalog              []CatalogItem `json:"catalog"`
	Orders               []OrderItem   `json:"orders"`
	Today                string        `json:"today,omitempty" example:"2025-03-03"`
	TotalLaborHours      *float64      `json:"total_labor_hours,omitempty"`
	MaxShiftsPerDay      *int          `json:"max_shifts_per_day,omitempty"`
	UnknownProductPolicy string        `json:"unknown_product_policy,omitempty" enum:"skip,abort"`
	AttainmentRounding   string        `json:"attainment_rounding,omitempty" enum:"exact,legacy"`
	Save                 bool          `json:"save,omitempty"`
}

func (item CatalogItem) record() (*entities.CatalogRecord, error) {
	status := entities.Active
	if item.Status == "Inactive" {
		status = entities.Inactive
	}
	return entities.NewCatalogRecord(
		entities.ProductID(item.ProductNumber),
		item.Description,
		decimal.NewFromFloat(item.ThroughputPerHour),
		decimal.NewFromFloat(item.Staff),
		status,
	)
}

// order builds the order request; lines are numbered from 2 so they match the rows of an equivalent CSV upload
func (item OrderItem) order(index int) (*entities.OrderRequest, error) {
	due, err := entities.ParseDate(item.DueDate)
	if err != nil {
		return nil, entities.NewInvalidInputError("order", "due_date", "must be YYYY-MM-DD for '%s', got '%s'", item.ProductDescription, item.DueDate)
	}
	return entities.NewOrderRequest(index+2, item.ProductDescription, entities.Quantity(item.Quantity), due)
}

func (r CreatePlanRequest) today(now func() time.Time) (time.Time, error) {
	if r.Today == "" {
		return entities.Day(now()), nil
	}
	t, err := entities.ParseDate(r.Today)
	if err != nil {
		return time.Time{}, entities.NewInvalidInputError("plan request", "today", "must be YYYY-MM-DD, got '%s'", r.Today)
	}
	return t, nil
}

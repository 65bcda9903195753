package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductStatus represents whether a catalog product may be planned
type ProductStatus int

const (
	Active ProductStatus = iota
	Inactive
)

// String method for ProductStatus enum
func (s ProductStatus) String() string {
	switch s {
	case Active:
		return "Active"
	case Inactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// CatalogRecord represents one product row of the master catalog
type CatalogRecord struct {
	ProductID         ProductID       `json:"product_id"`
	Description       string          `json:"description"`
	ThroughputPerHour decimal.Decimal `json:"throughput_per_hour"`
	StaffRequired     decimal.Decimal `json:"staff_required"`
	Status            ProductStatus   `json:"status"`
}

// NewCatalogRecord creates a validated CatalogRecord. The description is trimmed.
func NewCatalogRecord(
	productID ProductID,
	description string,
	throughputPerHour, staffRequired decimal.Decimal,
	status ProductStatus,
) (*CatalogRecord, error) {
	description = strings.TrimSpace(description)
	if string(productID) == "" {
		return nil, NewInvalidInputError("catalog record", "product_id", "cannot be empty")
	}
	if description == "" {
		return nil, NewInvalidInputError("catalog record", "description", "cannot be empty for product %s", productID)
	}
	if !throughputPerHour.IsPositive() {
		return nil, NewInvalidInputError("catalog record", "throughput_per_hour", "must be positive for product %s, got %s", productID, throughputPerHour)
	}
	if !staffRequired.IsPositive() {
		return nil, NewInvalidInputError("catalog record", "staff", "must be positive for product %s, got %s", productID, staffRequired)
	}

	return &CatalogRecord{
		ProductID:         productID,
		Description:       description,
		ThroughputPerHour: throughputPerHour,
		StaffRequired:     staffRequired,
		Status:            status,
	}, nil
}

// ProductParams is the per-product planning input handed to the allocator and scheduler
type ProductParams struct {
	ID                ProductID       `json:"id"`
	Description       string          `json:"description"`
	RequestedQuantity Quantity        `json:"requested_quantity"`
	ThroughputPerHour decimal.Decimal `json:"throughput_per_hour"`
	StaffRequired     decimal.Decimal `json:"staff_required"`
}

// NewProductParams creates validated ProductParams
func NewProductParams(
	id ProductID,
	description string,
	requested Quantity,
	throughputPerHour, staffRequired decimal.Decimal,
) (*ProductParams, error) {
	p := ProductParams{
		ID:                id,
		Description:       description,
		RequestedQuantity: requested,
		ThroughputPerHour: throughputPerHour,
		StaffRequired:     staffRequired,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// NewProductParamsFromRecord combines a catalog record with an ordered quantity
func NewProductParamsFromRecord(record *CatalogRecord, requested Quantity) (*ProductParams, error) {
	return NewProductParams(
		record.ProductID,
		record.Description,
		requested,
		record.ThroughputPerHour,
		record.StaffRequired,
	)
}

// Validate checks that every field is present and positive
func (p ProductParams) Validate() error {
	if string(p.ID) == "" {
		return NewInvalidInputError("product", "id", "cannot be empty")
	}
	if p.RequestedQuantity <= 0 {
		return NewInvalidInputError("product", "requested_quantity", "must be positive for %s, got %d", p.ID, p.RequestedQuantity)
	}
	if !p.ThroughputPerHour.IsPositive() {
		return NewInvalidInputError("product", "throughput_per_hour", "must be positive for %s, got %s", p.ID, p.ThroughputPerHour)
	}
	if !p.StaffRequired.IsPositive() {
		return NewInvalidInputError("product", "staff_required", "must be positive for %s, got %s", p.ID, p.StaffRequired)
	}
	return nil
}

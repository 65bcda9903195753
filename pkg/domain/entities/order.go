package entities

import (
	"strings"
	"time"
)

// OrderRequest represents one line of incoming demand
type OrderRequest struct {
	Line               int       `json:"line"`
	ProductDescription string    `json:"product_description"`
	Quantity           Quantity  `json:"quantity"`
	DueDate            time.Time `json:"due_date"`
}

// NewOrderRequest creates a validated OrderRequest. The due date is truncated to its calendar day.
func NewOrderRequest(line int, description string, quantity Quantity, dueDate time.Time) (*OrderRequest, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, NewInvalidInputError("order", "product_description", "cannot be empty (line %d)", line)
	}
	if quantity <= 0 {
		return nil, NewInvalidInputError("order", "quantity", "must be positive for '%s', got %d", description, quantity)
	}
	if dueDate.IsZero() {
		return nil, NewInvalidInputError("order", "due_date", "is required for '%s'", description)
	}

	return &OrderRequest{
		Line:               line,
		ProductDescription: description,
		Quantity:           quantity,
		DueDate:            Day(dueDate),
	}, nil
}

// Validate re-checks the order invariants, for orders built without NewOrderRequest
func (o OrderRequest) Validate() error {
	_, err := NewOrderRequest(o.Line, o.ProductDescription, o.Quantity, o.DueDate)
	return err
}

// ResolvedOrder is the demand for a single catalog product after resolution.
// Several order lines naming the same product collapse into one ResolvedOrder.
type ResolvedOrder struct {
	ProductID   ProductID `json:"product_id"`
	Description string    `json:"description"`
	Quantity    Quantity  `json:"quantity"`
	DueDate     time.Time `json:"due_date"`
	Lines       []int     `json:"lines"`
}

// Merge folds another order line into this demand: quantities add up and the earliest due date wins
func (r *ResolvedOrder) Merge(order *OrderRequest) {
	r.Quantity += order.Quantity
	if order.DueDate.Before(r.DueDate) {
		r.DueDate = order.DueDate
	}
	r.Lines = append(r.Lines, order.Line)
}

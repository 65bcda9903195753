package memory

import (
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// OrderRepository provides in-memory order storage
type OrderRepository struct {
	orders []entities.OrderRequest
}

// NewOrderRepository creates a new in-memory order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: []entities.OrderRequest{},
	}
}

// Verify interface compliance
var _ repositories.OrderRepository = (*OrderRepository)(nil)

// LoadOrders validates and appends orders
func (r *OrderRepository) LoadOrders(orders []*entities.OrderRequest) error {
	for _, order := range orders {
		if err := order.Validate(); err != nil {
			return err
		}
	}
	for _, order := range orders {
		r.orders = append(r.orders, *order)
	}
	return nil
}

// GetOrders returns all orders in source order
func (r *OrderRepository) GetOrders() ([]*entities.OrderRequest, error) {
	orders := make([]*entities.OrderRequest, 0, len(r.orders))
	for i := range r.orders {
		orders = append(orders, &r.orders[i])
	}
	return orders, nil
}

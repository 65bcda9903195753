package repositories

import "github.com/vsinha/prodplan/pkg/domain/entities"

// OrderRepository provides access to incoming demand, in source order
type OrderRepository interface {
	GetOrders() ([]*entities.OrderRequest, error)
	LoadOrders(orders []*entities.OrderRequest) error
}

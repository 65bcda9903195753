package repositories

import "github.com/vsinha/prodplan/pkg/domain/entities"

// CatalogRepository provides two-way access to the product master catalog.
// Orders name products by description; the planner works in product ids.
type CatalogRepository interface {
	LookupID(description string) (entities.ProductID, error)
	GetProduct(id entities.ProductID) (*entities.CatalogRecord, error)
	Resolve(description string) (*entities.CatalogRecord, error)
	GetAllProducts() ([]*entities.CatalogRecord, error)
	LoadProducts(records []*entities.CatalogRecord) error
}

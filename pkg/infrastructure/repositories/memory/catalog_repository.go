package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// DuplicatePolicy decides what happens when two active catalog rows share a description
type DuplicatePolicy int

const (
	// LastWins keeps the row loaded last for the description lookup
	LastWins DuplicatePolicy = iota
	// RejectDuplicates fails the load and lists the clashing descriptions
	RejectDuplicates
)

// String method for DuplicatePolicy enum
func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last_wins"
	case RejectDuplicates:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy parses "last_wins" or "reject"
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last_wins":
		return LastWins, nil
	case "reject":
		return RejectDuplicates, nil
	default:
		return LastWins, fmt.Errorf("invalid duplicate description policy: %s (expected last_wins or reject)", s)
	}
}

// CatalogRepository provides in-memory catalog storage with description and id indexes
type CatalogRepository struct {
	records       []entities.CatalogRecord
	byID          map[entities.ProductID]int
	byDescription map[string]entities.ProductID
	policy        DuplicatePolicy
}

// NewCatalogRepository creates a new in-memory catalog repository
func NewCatalogRepository(expectedProducts int, policy DuplicatePolicy) *CatalogRepository {
	return &CatalogRepository{
		records:       make([]entities.CatalogRecord, 0, expectedProducts),
		byID:          make(map[entities.ProductID]int, expectedProducts),
		byDescription: make(map[string]entities.ProductID, expectedProducts),
		policy:        policy,
	}
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// LoadProducts loads catalog records. Inactive rows are ignored. The load is
// all-or-nothing: on error the repository is left unchanged.
func (r *CatalogRepository) LoadProducts(records []*entities.CatalogRecord) error {
	seenIDs := make(map[entities.ProductID]bool, len(records))
	descCount := make(map[string]int)
	var duplicateIDs []string

	for _, record := range records {
		if record.Status != entities.Active {
			continue
		}
		if _, exists := r.byID[record.ProductID]; exists || seenIDs[record.ProductID] {
			duplicateIDs = append(duplicateIDs, string(record.ProductID))
		}
		seenIDs[record.ProductID] = true
		descCount[normalizeDescription(record.Description)]++
	}

	if len(duplicateIDs) > 0 {
		return fmt.Errorf("duplicate product numbers found: %s", strings.Join(duplicateIDs, ", "))
	}

	if r.policy == RejectDuplicates {
		var duplicates []string
		for desc, n := range descCount {
			_, loaded := r.byDescription[desc]
			if n > 1 || loaded {
				duplicates = append(duplicates, desc)
			}
		}
		if len(duplicates) > 0 {
			sort.Strings(duplicates)
			return fmt.Errorf("duplicate product descriptions found: %s", strings.Join(duplicates, ", "))
		}
	}

	for _, record := range records {
		if record.Status != entities.Active {
			continue
		}
		r.AddProduct(*record)
	}
	return nil
}

// AddProduct adds a record without duplicate checks; a later description replaces the earlier mapping
func (r *CatalogRepository) AddProduct(record entities.CatalogRecord) {
	r.byID[record.ProductID] = len(r.records)
	r.byDescription[normalizeDescription(record.Description)] = record.ProductID
	r.records = append(r.records, record)
}

// LookupID maps a product description to its product id
func (r *CatalogRepository) LookupID(description string) (entities.ProductID, error) {
	id, exists := r.byDescription[normalizeDescription(description)]
	if !exists {
		return "", &entities.ProductNotFoundError{Description: strings.TrimSpace(description)}
	}
	return id, nil
}

// GetProduct returns the catalog record for a product id
func (r *CatalogRepository) GetProduct(id entities.ProductID) (*entities.CatalogRecord, error) {
	index, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("product not found: %s", id)
	}
	return &r.records[index], nil
}

// Resolve maps a description straight to its catalog record
func (r *CatalogRepository) Resolve(description string) (*entities.CatalogRecord, error) {
	id, err := r.LookupID(description)
	if err != nil {
		return nil, err
	}
	return r.GetProduct(id)
}

// GetAllProducts returns all active records in load order
func (r *CatalogRepository) GetAllProducts() ([]*entities.CatalogRecord, error) {
	records := make([]*entities.CatalogRecord, 0, len(r.records))
	for i := range r.records {
		records = append(records, &r.records[i])
	}
	return records, nil
}

// Len returns the number of active products
func (r *CatalogRepository) Len() int {
	return len(r.records)
}

func normalizeDescription(description string) string {
	return strings.TrimSpace(description)
}

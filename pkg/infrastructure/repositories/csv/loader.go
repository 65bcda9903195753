package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/viant/afs"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

var (
	catalogHeader = []string{"product_number", "product_description", "qty_per_labour_hour", "staff", "status"}
	ordersHeader  = []string{"product_description", "quantity", "due_date"}
)

// sourceRow is a non-blank CSV record and the line it starts on
type sourceRow struct {
	line   int
	fields []string
}

// SkippedRow is a catalog row dropped because a required column did not parse
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Loader handles loading planning data from CSV sources.
// Sources are local paths or any URL the afs service understands (file://, mem://, s3://, gs://).
type Loader struct {
	fs afs.Service
}

// NewLoader creates a new CSV loader backed by the default afs service
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// NewLoaderWithService creates a CSV loader on a caller-supplied afs service
func NewLoaderWithService(fs afs.Service) *Loader {
	return &Loader{fs: fs}
}

// LoadCatalog loads master catalog records. Rows with a missing description or
// unparsable numeric column are dropped and reported, not treated as errors.
func (l *Loader) LoadCatalog(ctx context.Context, location string) ([]*entities.CatalogRecord, []SkippedRow, error) {
	rows, err := l.readAll(ctx, location, "catalog")
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 1 {
		return nil, nil, fmt.Errorf("catalog CSV must have a header row")
	}
	if !validateHeader(rows[0].fields, catalogHeader) {
		return nil, nil, fmt.Errorf("catalog CSV header mismatch. Expected: %v, Got: %v", catalogHeader, rows[0].fields)
	}

	var catalog []*entities.CatalogRecord
	var skipped []SkippedRow
	for _, row := range rows[1:] {
		line, record := row.line, row.fields
		if len(record) != len(catalogHeader) {
			return nil, nil, fmt.Errorf("catalog CSV row %d: expected %d columns, got %d", line, len(catalogHeader), len(record))
		}

		product, reason := parseCatalogRecord(record)
		if reason != "" {
			skipped = append(skipped, SkippedRow{Line: line, Reason: reason})
			continue
		}
		catalog = append(catalog, product)
	}

	return catalog, skipped, nil
}

// LoadOrders loads order lines. Any malformed row is an error naming its line.
func (l *Loader) LoadOrders(ctx context.Context, location string) ([]*entities.OrderRequest, error) {
	rows, err := l.readAll(ctx, location, "orders")
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("orders CSV must have a header row")
	}
	if !validateHeader(rows[0].fields, ordersHeader) {
		return nil, fmt.Errorf("orders CSV header mismatch. Expected: %v, Got: %v", ordersHeader, rows[0].fields)
	}

	var orders []*entities.OrderRequest
	for _, row := range rows[1:] {
		line, record := row.line, row.fields
		if len(record) != len(ordersHeader) {
			return nil, fmt.Errorf("orders CSV row %d: expected %d columns, got %d", line, len(ordersHeader), len(record))
		}

		order, err := parseOrder(line, record)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", line, err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// readAll returns the non-blank records with their source line numbers. Blank and
// comma-only lines are dropped without shifting the numbering.
func (l *Loader) readAll(ctx context.Context, location, kind string) ([]sourceRow, error) {
	data, err := l.fs.DownloadWithURL(ctx, SourceURL(location))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, location, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	var rows []sourceRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, sourceRow{line: line, fields: record})
	}
	return rows, nil
}

// SourceURL turns a plain filesystem path into a file:// URL; URLs pass through unchanged
func SourceURL(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		location = abs
	}
	return "file://" + filepath.ToSlash(location)
}

func parseCatalogRecord(record []string) (*entities.CatalogRecord, string) {
	productNumber := strings.TrimSpace(record[0])
	description := strings.TrimSpace(record[1])
	if productNumber == "" {
		return nil, "missing product_number"
	}
	if description == "" {
		return nil, "missing product_description"
	}

	throughput, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Sprintf("invalid qty_per_labour_hour: %q", record[2])
	}
	staff, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return nil, fmt.Sprintf("invalid staff: %q", record[3])
	}

	product, err := entities.NewCatalogRecord(
		entities.ProductID(productNumber),
		description,
		throughput,
		staff,
		parseStatus(record[4]),
	)
	if err != nil {
		return nil, err.Error()
	}
	return product, ""
}

func parseOrder(line int, record []string) (*entities.OrderRequest, error) {
	quantityStr := strings.TrimSpace(record[1])
	quantity, err := strconv.ParseInt(quantityStr, 10, 64)
	if err != nil {
		// spreadsheets export integral quantities as 1200.0
		f, ferr := strconv.ParseFloat(quantityStr, 64)
		if ferr != nil || f != float64(int64(f)) {
			return nil, fmt.Errorf("invalid quantity: %s", record[1])
		}
		quantity = int64(f)
	}

	dueDate, err := entities.ParseDate(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid due_date format: %s (expected YYYY-MM-DD)", record[2])
	}

	return entities.NewOrderRequest(line, record[0], entities.Quantity(quantity), dueDate)
}

func parseStatus(s string) entities.ProductStatus {
	if strings.EqualFold(strings.TrimSpace(s), "active") {
		return entities.Active
	}
	return entities.Inactive
}

// validateHeader compares column names ignoring case and surrounding whitespace
func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range actual {
		col = strings.TrimPrefix(col, "\ufeff")
		if !strings.EqualFold(strings.TrimSpace(col), expected[i]) {
			return false
		}
	}
	return true
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

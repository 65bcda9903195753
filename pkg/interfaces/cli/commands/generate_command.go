package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	csvrepo "github.com/vsinha/prodplan/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for sample data generation
type GenerateConfig struct {
	Products  int       // Number of catalog rows
	Orders    int       // Number of order lines
	OutputDir string    // Output directory or afs URL
	Seed      int64     // Random seed for reproducible generation
	Today     time.Time // Due dates are spread over the 30 days after Today
	Verbose   bool
	Stdout    io.Writer
	FS        afs.Service
}

// GenerateCommand writes a sample catalog.csv and orders.csv
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.FS == nil {
		config.FS = afs.New()
	}
	if config.Today.IsZero() {
		config.Today = entities.Day(time.Now())
	}
	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

var (
	productLines = []string{"Greek Yogurt", "Trail Mix", "Granola Bites", "Party Platter", "Sparkling Water", "Rice Crackers", "Protein Bar", "Cold Brew", "Fruit Cups", "Hummus Snack"}
	productPacks = []string{"6pk", "12pk", "24pk", "Club Pack", "Variety 54 ct", "Family Size", "Single Serve"}
	productChans = []string{"", " Costco", " Retail", " Export"}
)

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Products <= 0 || cmd.config.Orders < 0 {
		return fmt.Errorf("products must be positive and orders cannot be negative")
	}
	if cmd.config.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Stdout, "🔧 Generating %d products and %d order lines\n", cmd.config.Products, cmd.config.Orders)
		fmt.Fprintf(cmd.config.Stdout, "📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Fprintf(cmd.config.Stdout, "🎲 Random seed: %d\n", cmd.config.Seed)
	}

	catalog := cmd.generateCatalog()
	if err := cmd.write(ctx, "catalog.csv", catalog); err != nil {
		return fmt.Errorf("failed to generate catalog: %w", err)
	}
	if err := cmd.write(ctx, "orders.csv", cmd.generateOrders(catalog)); err != nil {
		return fmt.Errorf("failed to generate orders: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Stdout, "✅ Sample data generated in %s\n", cmd.config.OutputDir)
	}
	return nil
}

// generateCatalog returns the catalog rows including the header. Descriptions are unique.
func (cmd *GenerateCommand) generateCatalog() [][]string {
	rows := [][]string{{"product_number", "product_description", "qty_per_labour_hour", "staff", "status"}}
	seen := make(map[string]bool)
	for i := 0; i < cmd.config.Products; i++ {
		desc := productLines[cmd.rand.Intn(len(productLines))] + " " +
			productPacks[cmd.rand.Intn(len(productPacks))] +
			productChans[cmd.rand.Intn(len(productChans))]
		if seen[desc] {
			desc = fmt.Sprintf("%s #%d", desc, i+1)
		}
		seen[desc] = true

		// throughput in quarter units between 5 and 80 per hour
		throughput := float64(20+cmd.rand.Intn(301)) / 4
		staff := 1 + cmd.rand.Intn(6)
		status := "Active"
		if cmd.rand.Intn(20) == 0 {
			status = "Inactive"
		}
		rows = append(rows, []string{
			strconv.Itoa(1001 + i),
			desc,
			strconv.FormatFloat(throughput, 'f', 2, 64),
			strconv.Itoa(staff),
			status,
		})
	}
	return rows
}

// generateOrders draws order lines from the active catalog rows. Roughly one line
// in thirty names a product missing from the catalog.
func (cmd *GenerateCommand) generateOrders(catalog [][]string) [][]string {
	var active []string
	for _, row := range catalog[1:] {
		if row[4] == "Active" {
			active = append(active, row[1])
		}
	}

	rows := [][]string{{"product_description", "quantity", "due_date"}}
	for i := 0; i < cmd.config.Orders; i++ {
		desc := fmt.Sprintf("Discontinued Item %d", i+1)
		if len(active) > 0 && cmd.rand.Intn(30) != 0 {
			desc = active[cmd.rand.Intn(len(active))]
		}
		qty := 100 * (1 + cmd.rand.Intn(50))
		due := cmd.config.Today.AddDate(0, 0, 1+cmd.rand.Intn(30))
		rows = append(rows, []string{desc, strconv.Itoa(qty), due.Format(entities.DateLayout)})
	}
	return rows
}

func (cmd *GenerateCommand) write(ctx context.Context, name string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	url := csvrepo.SourceURL(strings.TrimSuffix(cmd.config.OutputDir, "/") + "/" + name)
	if err := cmd.config.FS.Upload(ctx, url, file.DefaultFileOsMode, &buf); err != nil {
		return err
	}
	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Stdout, "📦 Wrote %s (%d rows)\n", name, len(rows)-1)
	}
	return nil
}

func generateCmd() *cobra.Command {
	var cfg GenerateConfig
	var today string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a sample catalog.csv and orders.csv",
		RunE: func(c *cobra.Command, args []string) error {
			var err error
			cfg.Today, err = parseToday(today)
			if err != nil {
				return err
			}
			cfg.Stdout = c.OutOrStdout()
			cfg.Verbose = true
			return NewGenerateCommand(cfg).Execute(c.Context())
		},
	}
	cmd.Flags().IntVar(&cfg.Products, "products", 25, "number of catalog products")
	cmd.Flags().IntVar(&cfg.Orders, "orders", 40, "number of order lines")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVar(&cfg.OutputDir, "output", "sample", "output directory or afs URL")
	cmd.Flags().StringVar(&today, "today", "", "base date for due dates YYYY-MM-DD (default: the current date)")
	return cmd
}

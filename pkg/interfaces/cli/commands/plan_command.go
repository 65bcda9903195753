package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viant/afs"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/orchestration"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/prodplan/pkg/infrastructure/store"
	"github.com/vsinha/prodplan/pkg/infrastructure/tracing"
	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

// PlanConfig holds configuration for the plan command
type PlanConfig struct {
	CatalogFile string
	OrdersFile  string
	Settings    *config.Config
	Today       time.Time
	Format      string
	Output      string
	Save        bool
	Verbose     bool
	Stdout      io.Writer
	Stderr      io.Writer
	FS          afs.Service
}

// PlanCommand runs one planning run from catalog and order files
type PlanCommand struct {
	config PlanConfig
	logger *log.Logger
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(cfg PlanConfig) *PlanCommand {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.FS == nil {
		cfg.FS = afs.New()
	}
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	return &PlanCommand{
		config: cfg,
		logger: newLogger(cfg.Stderr),
	}
}

// Execute loads the inputs, plans, renders the result and optionally stores it
func (c *PlanCommand) Execute(ctx context.Context) (*dto.PlanResult, error) {
	if err := c.validateInputs(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	settings, err := orchestration.SettingsFromConfig(c.config.Settings)
	if err != nil {
		return nil, err
	}

	if c.config.Verbose {
		c.printHeader(settings)
		fmt.Fprintln(c.config.Stderr, "📂 Loading data from CSV files...")
	}

	loader := csv.NewLoaderWithService(c.config.FS)
	records, skipped, err := loader.LoadCatalog(ctx, c.config.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("error loading catalog: %w", err)
	}
	for _, row := range skipped {
		c.logger.Printf("[WARN] catalog line %d skipped: %s", row.Line, row.Reason)
	}
	orders, err := loader.LoadOrders(ctx, c.config.OrdersFile)
	if err != nil {
		return nil, fmt.Errorf("error loading orders: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.Stderr, "✅ Data loaded successfully:\n")
		fmt.Fprintf(c.config.Stderr, "  Catalog rows: %d (%d skipped)\n", len(records), len(skipped))
		fmt.Fprintf(c.config.Stderr, "  Order lines: %d\n", len(orders))
		fmt.Fprintln(c.config.Stderr, "🔄 Running allocation and scheduling...")
	}

	startTime := time.Now()
	input := orchestration.PlanInput{
		Catalog: records,
		Orders:  orders,
		Today:   c.config.Today,
	}
	if c.config.Verbose {
		input.Observer = progressPrinter(c.config.Stderr)
	}
	result, err := orchestration.RunWithSettings(ctx, settings, input, c.logger)
	elapsed := time.Since(startTime)
	if err != nil {
		return nil, err
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.Stderr, "✅ Planning completed in %v\n\n", elapsed)
	}

	err = output.Generate(ctx, result, output.Config{
		Format:     c.config.Format,
		Output:     c.config.Output,
		Verbose:    c.config.Verbose,
		Elapsed:    elapsed,
		Attainment: settings.Attainment,
		Writer:     c.config.Stdout,
		FS:         c.config.FS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}

	if c.config.Save {
		if err := c.save(ctx, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *PlanCommand) validateInputs() error {
	if c.config.CatalogFile == "" {
		return fmt.Errorf("--catalog is required")
	}
	if c.config.OrdersFile == "" {
		return fmt.Errorf("--orders is required")
	}
	if c.config.Today.IsZero() {
		return fmt.Errorf("today is required")
	}
	if c.config.Save && c.config.Settings.Store.DSN == "" {
		return fmt.Errorf("--save needs a store: set --store, PRODPLAN_STORE or store.dsn")
	}
	return nil
}

func (c *PlanCommand) save(ctx context.Context, result *dto.PlanResult) error {
	s, err := openStore(ctx, c.config.Settings.Store.DSN)
	if err != nil {
		return err
	}
	defer s.Close()

	bar := progressbar.NewOptions(len(result.Timeline)+len(result.SchedulingErrors),
		progressbar.OptionSetWriter(c.config.Stderr),
		progressbar.OptionSetDescription("saving run "+result.RunID),
		progressbar.OptionClearOnFinish(),
	)
	if err := s.SaveRun(ctx, result, func() { _ = bar.Add(1) }); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	_ = bar.Finish()
	fmt.Fprintf(c.config.Stderr, "💾 Run %s saved\n", result.RunID)
	return nil
}

func (c *PlanCommand) printHeader(settings *orchestration.Settings) {
	fmt.Fprintf(c.config.Stderr, "🏭 prodplan\n")
	fmt.Fprintf(c.config.Stderr, "==========\n")
	fmt.Fprintf(c.config.Stderr, "Catalog: %s\n", c.config.CatalogFile)
	fmt.Fprintf(c.config.Stderr, "Orders: %s\n", c.config.OrdersFile)
	fmt.Fprintf(c.config.Stderr, "Today: %s\n", c.config.Today.Format(entities.DateLayout))
	fmt.Fprintf(c.config.Stderr, "Labor hours: %.2f, max shifts per day: %d\n", settings.TotalLaborHours, settings.MaxShiftsPerDay)
	fmt.Fprintf(c.config.Stderr, "Unknown products: %s, attainment: %s\n\n", settings.UnknownProductPolicy, settings.Attainment)
}

// progressPrinter reports per-product outcomes of a run while it executes
func progressPrinter(w io.Writer) events.HandlerFunc {
	return func(e events.Event) error {
		switch data := e.Data().(type) {
		case events.OrderRejected:
			fmt.Fprintf(w, "  ⏭️  order line %d skipped: %s\n", data.Line, data.Reason)
		case events.OrderMerged:
			fmt.Fprintf(w, "  🔗 order lines %s merged into %s (%d units)\n", joinInts(data.Lines), data.ProductID, data.Quantity)
		case events.ProductScheduled:
			fmt.Fprintf(w, "  📅 %s: %s to %s, %d units\n", data.Entry.Description,
				data.Entry.StartDate.Format(entities.DateLayout), data.Entry.EndDate.Format(entities.DateLayout), data.Entry.PlannedQuantity)
		case events.ProductUnschedulable:
			fmt.Fprintf(w, "  ⚠️  %s\n", data.Error.Error())
		}
		return nil
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// openStore opens and migrates the run history store
func openStore(ctx context.Context, dsn string) (*store.Store, error) {
	s, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if _, err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return s, nil
}

// startTracing initializes tracing when tracing.output is configured
func startTracing(cfg *config.Config) (func(), error) {
	if cfg.Tracing.Output == "" {
		return func() {}, nil
	}
	if err := tracing.Init("prodplan", Version, cfg.Tracing.Output); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(ctx)
	}, nil
}

func planCmd() *cobra.Command {
	var cfg PlanConfig
	var today string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Allocate labor hours and schedule the orders",
		Example: `  prodplan plan --catalog master_data.csv --orders orders.csv
  prodplan plan --catalog master_data.csv --orders orders.csv --total-labor-hours 1200 --format csv --output out/
  PRODPLAN_UNKNOWN_PRODUCT=abort prodplan plan --catalog s3://bucket/catalog.csv --orders orders.csv --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Settings = settings
			cfg.Verbose = viper.GetBool("verbose")
			cfg.Today, err = parseToday(today)
			if err != nil {
				return err
			}

			stop, err := startTracing(settings)
			if err != nil {
				return err
			}
			defer stop()

			_, err = NewPlanCommand(cfg).Execute(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.CatalogFile, "catalog", "", "catalog CSV (path or afs URL)")
	cmd.Flags().StringVar(&cfg.OrdersFile, "orders", "", "orders CSV (path or afs URL)")
	cmd.Flags().StringVar(&today, "today", "", "planning date YYYY-MM-DD (default: the current date)")
	cmd.Flags().StringVar(&cfg.Format, "format", "table", "output format: table, json, csv, html")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "", "output file (json, html, table) or directory (csv)")
	cmd.Flags().BoolVar(&cfg.Save, "save", false, "store the run in the history store")
	cmd.Flags().Float64("total-labor-hours", 0, "labor-hour budget (overrides planning.total_labor_hours)")
	cmd.Flags().Int("max-shifts-per-day", 0, "shifts per day (overrides planning.max_shifts_per_day)")
	cmd.Flags().String("unknown-product", "", "skip or abort on orders for unknown products")
	cmd.Flags().String("attainment", "", "attainment rounding: exact or legacy")
	cmd.Flags().String("solve-timeout", "", "LP solve time bound, e.g. 30s")
	cmd.Flags().String("duplicate-descriptions", "", "catalog duplicate descriptions: last_wins or reject")
	cmd.Flags().String("trace-output", "", "write OpenTelemetry spans to this file")
	for _, name := range []string{"total-labor-hours", "max-shifts-per-day", "unknown-product", "attainment", "solve-timeout", "duplicate-descriptions", "trace-output"} {
		_ = viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func parseToday(s string) (time.Time, error) {
	if s == "" {
		return entities.Day(time.Now()), nil
	}
	t, err := entities.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today: %w", err)
	}
	return t, nil
}

package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	csvrepo "github.com/vsinha/prodplan/pkg/infrastructure/repositories/csv"
)

// Formats lists the supported output formats
var Formats = []string{"table", "json", "csv", "html"}

// Config holds configuration for output generation
type Config struct {
	Format     string
	Output     string // directory for csv, file for json and html; empty writes to Writer
	Verbose    bool
	Elapsed    time.Duration
	Attainment entities.AttainmentRounding
	Writer     io.Writer
	FS         afs.Service
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

func (c Config) fs() afs.Service {
	if c.FS == nil {
		return afs.New()
	}
	return c.FS
}

// Generate renders a plan result in the configured format
func Generate(ctx context.Context, result *dto.PlanResult, config Config) error {
	switch config.Format {
	case "", "table":
		return generateTableOutput(ctx, result, config)
	case "json":
		return generateJSONOutput(ctx, result, config)
	case "csv":
		return generateCSVOutput(ctx, result, config)
	case "html":
		return generateHTMLOutput(ctx, result, config)
	default:
		return fmt.Errorf("unsupported output format: %s (expected one of %s)", config.Format, strings.Join(Formats, ", "))
	}
}

func generateTableOutput(ctx context.Context, result *dto.PlanResult, config Config) error {
	if config.Output == "" {
		WriteTables(config.writer(), result, config.Attainment, config.Elapsed)
		return nil
	}
	var sb strings.Builder
	WriteTables(&sb, result, config.Attainment, config.Elapsed)
	return upload(ctx, config, config.Output, []byte(sb.String()))
}

func generateJSONOutput(ctx context.Context, result *dto.PlanResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.Output == "" {
		_, err = fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}
	return upload(ctx, config, config.Output, jsonData)
}

func generateCSVOutput(ctx context.Context, result *dto.PlanResult, config Config) error {
	if config.Output == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	files := []struct {
		name string
		data func(*dto.PlanResult, entities.AttainmentRounding) ([]byte, error)
	}{
		{"timeline.csv", TimelineCSV},
		{"scheduling_errors.csv", SchedulingErrorsCSV},
		{"rejected_orders.csv", RejectedOrdersCSV},
	}

	dir := strings.TrimSuffix(config.Output, "/")
	for _, f := range files {
		data, err := f.data(result, config.Attainment)
		if err != nil {
			return fmt.Errorf("failed to build %s: %w", f.name, err)
		}
		if err := upload(ctx, config, dir+"/"+f.name, data); err != nil {
			return err
		}
	}
	return nil
}

func generateHTMLOutput(ctx context.Context, result *dto.PlanResult, config Config) error {
	page, err := NewHTMLReport().Render(result, config)
	if err != nil {
		return err
	}
	if config.Output == "" {
		_, err = io.WriteString(config.writer(), page)
		return err
	}
	return upload(ctx, config, config.Output, []byte(page))
}

func upload(ctx context.Context, config Config, location string, data []byte) error {
	url := csvrepo.SourceURL(location)
	if err := config.fs().Upload(ctx, url, file.DefaultFileOsMode, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 Results saved to: %s\n", location)
	}
	return nil
}

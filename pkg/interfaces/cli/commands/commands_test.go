package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/store"
)

var today = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func upload(t *testing.T, fs afs.Service, url, content string) {
	t.Helper()
	require.NoError(t, fs.Upload(context.Background(), url, file.DefaultFileOsMode, strings.NewReader(content)))
}

func writeScenario(t *testing.T, fs afs.Service, dir string) {
	t.Helper()
	upload(t, fs, dir+"/catalog.csv", strings.Join([]string{
		"product_number,product_description,qty_per_labour_hour,staff,status",
		"X,Product X,10,1,Active",
		"Y,Product Y,5,1,Active",
		"Z,Retired Product,5,1,Inactive",
		"W,Broken Row,n/a,1,Active",
	}, "\n"))
	upload(t, fs, dir+"/orders.csv", strings.Join([]string{
		"product_description,quantity,due_date",
		"Product X,500,2025-04-02",
		"Product Y,1000,2025-04-02",
		"Retired Product,10,2025-04-02",
	}, "\n"))
}

func TestPlanCommand_Execute(t *testing.T) {
	fs := afs.New()
	dir := "mem://localhost/commands/plan"
	writeScenario(t, fs, dir)

	settings := config.Default()
	settings.Planning.TotalLaborHours = 100

	var stdout, stderr bytes.Buffer
	result, err := NewPlanCommand(PlanConfig{
		CatalogFile: dir + "/catalog.csv",
		OrdersFile:  dir + "/orders.csv",
		Settings:    settings,
		Today:       today,
		Format:      "table",
		Stdout:      &stdout,
		Stderr:      &stderr,
		FS:          fs,
	}).Execute(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 750, result.Objective, 1e-6)
	require.Len(t, result.Timeline, 2)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 4, result.Rejected[0].Line)

	assert.Contains(t, stdout.String(), "Product X")
	assert.Contains(t, stdout.String(), "Retired Product")
	assert.Contains(t, stderr.String(), "catalog line 5 skipped")
}

func TestPlanCommand_VerboseReportsProgress(t *testing.T) {
	fs := afs.New()
	dir := "mem://localhost/commands/plan-verbose"
	writeScenario(t, fs, dir)

	settings := config.Default()
	settings.Planning.TotalLaborHours = 100

	var stderr bytes.Buffer
	_, err := NewPlanCommand(PlanConfig{
		CatalogFile: dir + "/catalog.csv",
		OrdersFile:  dir + "/orders.csv",
		Settings:    settings,
		Today:       today,
		Format:      "json",
		Verbose:     true,
		Stdout:      &bytes.Buffer{},
		Stderr:      &stderr,
		FS:          fs,
	}).Execute(context.Background())
	require.NoError(t, err)

	progress := stderr.String()
	assert.Contains(t, progress, "order line 4 skipped")
	assert.Contains(t, progress, "📅 Product X: 2025-03-04 to 2025-03-06, 500 units")
	assert.Contains(t, progress, "📅 Product Y: 2025-03-04 to 2025-03-06, 250 units")
}

func TestPlanCommand_CSVOutput(t *testing.T) {
	fs := afs.New()
	dir := "mem://localhost/commands/plan-csv"
	writeScenario(t, fs, dir)

	settings := config.Default()
	settings.Planning.TotalLaborHours = 100
	_, err := NewPlanCommand(PlanConfig{
		CatalogFile: dir + "/catalog.csv",
		OrdersFile:  dir + "/orders.csv",
		Settings:    settings,
		Today:       today,
		Format:      "csv",
		Output:      dir + "/out",
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		FS:          fs,
	}).Execute(context.Background())
	require.NoError(t, err)

	data, err := fs.DownloadWithURL(context.Background(), dir+"/out/timeline.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "X,Product X,2025-03-04,2025-03-06,50,1,7,3,2025-04-02,500,500,100.0%")
}

func TestPlanCommand_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		config PlanConfig
		expect string
	}{
		{"missing catalog", PlanConfig{OrdersFile: "o.csv", Today: today}, "--catalog is required"},
		{"missing orders", PlanConfig{CatalogFile: "c.csv", Today: today}, "--orders is required"},
		{"save without store", PlanConfig{CatalogFile: "c.csv", OrdersFile: "o.csv", Today: today, Save: true}, "--save needs a store"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.config.Stderr = &bytes.Buffer{}
			_, err := NewPlanCommand(tc.config).Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expect)
		})
	}
}

func TestPlanCommand_Save(t *testing.T) {
	fs := afs.New()
	dir := "mem://localhost/commands/plan-save"
	writeScenario(t, fs, dir)

	settings := config.Default()
	settings.Planning.TotalLaborHours = 100
	settings.Store.DSN = filepath.Join(t.TempDir(), "runs.db")

	var stderr bytes.Buffer
	result, err := NewPlanCommand(PlanConfig{
		CatalogFile: dir + "/catalog.csv",
		OrdersFile:  dir + "/orders.csv",
		Settings:    settings,
		Today:       today,
		Format:      "json",
		Save:        true,
		Stdout:      &bytes.Buffer{},
		Stderr:      &stderr,
		FS:          fs,
	}).Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "Run "+result.RunID+" saved")

	s, err := store.Open(context.Background(), settings.Store.DSN)
	require.NoError(t, err)
	defer s.Close()
	stored, err := s.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Len(t, stored.Timeline, 2)
}

func TestGenerateCommand_PlansCleanly(t *testing.T) {
	fs := afs.New()
	dir := "mem://localhost/commands/generated"

	var stdout bytes.Buffer
	err := NewGenerateCommand(GenerateConfig{
		Products:  12,
		Orders:    30,
		OutputDir: dir,
		Seed:      7,
		Today:     today,
		Verbose:   true,
		Stdout:    &stdout,
		FS:        fs,
	}).Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "catalog.csv (12 rows)")
	assert.Contains(t, stdout.String(), "orders.csv (30 rows)")

	result, err := NewPlanCommand(PlanConfig{
		CatalogFile: dir + "/catalog.csv",
		OrdersFile:  dir + "/orders.csv",
		Today:       today,
		Format:      "json",
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		FS:          fs,
	}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.ProductsPlanned(), result.Scheduled()+result.Unschedulable())
}

func TestGenerateCommand_Deterministic(t *testing.T) {
	a := NewGenerateCommand(GenerateConfig{Products: 5, Orders: 5, Seed: 42, Today: today, OutputDir: "x"})
	b := NewGenerateCommand(GenerateConfig{Products: 5, Orders: 5, Seed: 42, Today: today, OutputDir: "x"})
	catalogA, catalogB := a.generateCatalog(), b.generateCatalog()
	assert.Equal(t, catalogA, catalogB)
	assert.Equal(t, a.generateOrders(catalogA), b.generateOrders(catalogB))

	err := NewGenerateCommand(GenerateConfig{Products: 0, OutputDir: "x"}).Execute(context.Background())
	assert.Error(t, err)
}

func TestRootCommand_PlanJSON(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.csv")
	orders := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(catalog, []byte("product_number,product_description,qty_per_labour_hour,staff,status\nB,Product B,8,2,Active\n"), 0o644))
	require.NoError(t, os.WriteFile(orders, []byte("product_description,quantity,due_date\nProduct B,64,2025-03-06\n"), 0o644))
	out := filepath.Join(dir, "plan.json")

	root := NewRootCommand()
	root.SetArgs([]string{
		"plan",
		"--config", filepath.Join(dir, "missing.yml"),
		"--catalog", catalog,
		"--orders", orders,
		"--today", "2025-03-03",
		"--total-labor-hours", "16",
		"--max-shifts-per-day", "1",
		"--format", "json",
		"--output", out,
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.ExecuteContext(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result dto.PlanResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Timeline, 1)
	assert.Equal(t, entities.Quantity(64), result.Timeline[0].PlannedQuantity)
	assert.Equal(t, 1, result.MaxShiftsPerDay)
}

func TestRootCommand_HistoryProduct(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.csv")
	orders := filepath.Join(dir, "orders.csv")
	dsn := filepath.Join(dir, "runs.db")
	require.NoError(t, os.WriteFile(catalog, []byte("product_number,product_description,qty_per_labour_hour,staff,status\nB,Product B,8,2,Active\n"), 0o644))
	require.NoError(t, os.WriteFile(orders, []byte("product_description,quantity,due_date\nProduct B,64,2025-03-06\n"), 0o644))

	plan := NewRootCommand()
	plan.SetArgs([]string{
		"plan",
		"--config", filepath.Join(dir, "missing.yml"),
		"--store", dsn,
		"--catalog", catalog,
		"--orders", orders,
		"--today", "2025-03-03",
		"--total-labor-hours", "16",
		"--format", "json",
		"--output", filepath.Join(dir, "plan.json"),
		"--save",
	})
	plan.SetOut(&bytes.Buffer{})
	plan.SetErr(&bytes.Buffer{})
	require.NoError(t, plan.ExecuteContext(context.Background()))

	var out bytes.Buffer
	history := NewRootCommand()
	history.SetArgs([]string{"history", "product", "B", "--json", "--config", filepath.Join(dir, "missing.yml"), "--store", dsn})
	history.SetOut(&out)
	history.SetErr(&bytes.Buffer{})
	require.NoError(t, history.ExecuteContext(context.Background()))

	var runs []store.ProductRun
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Scheduled)
	assert.Equal(t, int64(64), runs[0].PlannedQuantity)
	assert.Equal(t, "2025-03-04", runs[0].StartDate)
}

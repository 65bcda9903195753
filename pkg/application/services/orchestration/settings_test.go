package orchestration

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
	testinghelpers "github.com/vsinha/prodplan/pkg/infrastructure/testing"
)

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Planning.UnknownProductPolicy = "abort"
	cfg.Planning.AttainmentRounding = "legacy"
	cfg.Catalog.DuplicateDescriptions = "reject"
	cfg.Planning.SolveTimeout = "5s"

	settings, err := SettingsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, AbortOnUnknown, settings.UnknownProductPolicy)
	assert.Equal(t, entities.LegacyAttainment, settings.Attainment)
	assert.Equal(t, memory.RejectDuplicates, settings.DuplicatePolicy)
	assert.Equal(t, 5*time.Second, settings.SolveTimeout)
	assert.Equal(t, float64(5000), settings.TotalLaborHours)

	request := settings.Request(testinghelpers.Today)
	assert.Equal(t, 3, request.MaxShiftsPerDay)
	assert.Equal(t, AbortOnUnknown, request.UnknownProductPolicy)

	cfg.Planning.TotalLaborHours = 0
	_, err = SettingsFromConfig(cfg)
	assert.Error(t, err)
}

func TestRunWithSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Planning.TotalLaborHours = 16
	cfg.Planning.MaxShiftsPerDay = 1
	settings, err := SettingsFromConfig(cfg)
	require.NoError(t, err)

	logger := log.New(&bytes.Buffer{}, "", 0)
	var observed []string
	result, err := RunWithSettings(context.Background(), settings, PlanInput{
		Catalog: []*entities.CatalogRecord{testinghelpers.Product("B", "Product B", "8", "2")},
		Orders: []*entities.OrderRequest{
			testinghelpers.Order(2, "Product B", 64, testinghelpers.DaysFromToday(3)),
			testinghelpers.Order(3, "Unknown Product", 10, testinghelpers.DaysFromToday(3)),
		},
		Today: testinghelpers.Today,
		Observer: events.HandlerFunc(func(e events.Event) error {
			observed = append(observed, e.Type())
			return nil
		}),
	}, logger)
	require.NoError(t, err)

	require.Len(t, observed, len(result.Events))
	for i, e := range result.Events {
		assert.Equal(t, e.Type, observed[i])
	}
	assert.Contains(t, observed, events.OrderRejectedEvent)
	assert.Equal(t, events.PlanCompletedEvent, observed[len(observed)-1])

	require.Len(t, result.Timeline, 1)
	assert.Equal(t, entities.Quantity(64), result.Timeline[0].PlannedQuantity)
	assert.True(t, result.Timeline[0].EndDate.Equal(testinghelpers.DaysFromToday(1)))
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 3, result.Rejected[0].Line)
}

func TestRunWithSettings_DuplicateDescriptionsRejected(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.DuplicateDescriptions = "reject"
	settings, err := SettingsFromConfig(cfg)
	require.NoError(t, err)

	_, err = RunWithSettings(context.Background(), settings, PlanInput{
		Catalog: []*entities.CatalogRecord{
			testinghelpers.Product("1", "Same Name", "8", "2"),
			testinghelpers.Product("2", "Same Name", "4", "1"),
		},
		Today: testinghelpers.Today,
	}, log.New(&bytes.Buffer{}, "", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate product descriptions found")
}

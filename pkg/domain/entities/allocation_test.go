package entities

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationResult_Rounding(t *testing.T) {
	testCases := []struct {
		name           string
		hours          float64
		throughput     decimal.Decimal
		expectRounded  int64
		expectQuantity Quantity
	}{
		{"zero hours", 0, decimal.NewFromInt(10), 0, 0},
		{"exact hours", 8, decimal.NewFromInt(8), 8, 64},
		{"fractional hours round up", 8.2, decimal.NewFromInt(8), 9, 72},
		{"a sliver of an hour costs a full hour", 1e-12, decimal.NewFromInt(8), 1, 8},
		{"just past a whole hour rounds up", 8.0000000000001, decimal.NewFromInt(8), 9, 72},
		{"fractional throughput floors", 3, decimal.RequireFromString("10.5"), 3, 31},
		{"decimal throughput avoids float drift", 10, decimal.RequireFromString("8.1"), 10, 81},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := AllocationResult{ProductID: "P", HoursAllocated: tc.hours}
			assert.Equal(t, tc.expectRounded, r.RoundedHours())
			assert.Equal(t, tc.expectQuantity, r.PlannedQuantity(tc.throughput))
			// pure: same inputs, same outputs
			assert.Equal(t, r.RoundedHours(), r.RoundedHours())
			assert.Equal(t, r.PlannedQuantity(tc.throughput), r.PlannedQuantity(tc.throughput))
		})
	}
}

func TestAllocation_OrderAndLookup(t *testing.T) {
	alloc := NewAllocation(3)
	for _, r := range []AllocationResult{
		{ProductID: "C", HoursAllocated: 1},
		{ProductID: "A", HoursAllocated: 2},
		{ProductID: "B", HoursAllocated: 0},
	} {
		require.NoError(t, alloc.Add(r), "add %s", r.ProductID)
	}

	var order []ProductID
	for _, r := range alloc.Results() {
		order = append(order, r.ProductID)
	}
	assert.Equal(t, []ProductID{"C", "A", "B"}, order)

	got, ok := alloc.Get("A")
	require.True(t, ok)
	assert.Equal(t, 2.0, got.HoursAllocated)
	_, ok = alloc.Get("Z")
	assert.False(t, ok)

	assert.Error(t, alloc.Add(AllocationResult{ProductID: "A", HoursAllocated: 5}), "duplicate product")
	assert.Error(t, alloc.Add(AllocationResult{ProductID: "N", HoursAllocated: -1}), "negative hours")
	assert.Equal(t, 3, alloc.Len())
}

func TestAllocation_Totals(t *testing.T) {
	products := []ProductParams{
		{ID: "X", RequestedQuantity: 500, ThroughputPerHour: decimal.NewFromInt(10), StaffRequired: decimal.NewFromInt(1)},
		{ID: "Y", RequestedQuantity: 1000, ThroughputPerHour: decimal.NewFromInt(5), StaffRequired: decimal.NewFromInt(2)},
	}
	alloc := NewAllocation(2)
	require.NoError(t, alloc.Add(AllocationResult{ProductID: "X", HoursAllocated: 50}))
	require.NoError(t, alloc.Add(AllocationResult{ProductID: "Y", HoursAllocated: 25}))

	assert.Equal(t, 100.0, alloc.LaborHoursUsed(products))
	assert.Equal(t, 625.0, alloc.UnitsProduced(products))

	alloc.Objective = 625
	data, err := json.Marshal(alloc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"objective":625`)
	assert.Contains(t, string(data), `"product_id":"Y"`)
}

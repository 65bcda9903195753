package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

var today = time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

func product(id string, throughput, staff int64, requested int64) entities.ProductParams {
	return entities.ProductParams{
		ID:                entities.ProductID(id),
		Description:       "Product " + id,
		RequestedQuantity: entities.Quantity(requested),
		ThroughputPerHour: decimal.NewFromInt(throughput),
		StaffRequired:     decimal.NewFromInt(staff),
	}
}

func allocation(t *testing.T, hours map[string]float64, order ...string) *entities.Allocation {
	t.Helper()
	alloc := entities.NewAllocation(len(order))
	for _, id := range order {
		require.NoError(t, alloc.Add(entities.AllocationResult{ProductID: entities.ProductID(id), HoursAllocated: hours[id]}))
	}
	return alloc
}

func scheduler(t *testing.T, maxShifts int) *Scheduler {
	t.Helper()
	s, err := NewSchedulerWithConfig(Config{MaxShiftsPerDay: maxShifts})
	require.NoError(t, err)
	return s
}

func TestSchedule_OneShiftFitsBeforeDueDate(t *testing.T) {
	products := []entities.ProductParams{product("B", 8, 2, 64)}
	alloc := allocation(t, map[string]float64{"B": 8}, "B")

	schedule, err := scheduler(t, 1).Schedule(products, alloc, DueDates{"B": day(3)}, today)
	require.NoError(t, err)
	require.Len(t, schedule.Timeline, 1)
	assert.Empty(t, schedule.Errors)

	entry := schedule.Timeline[0]
	assert.Equal(t, int64(8), entry.PlannedHours)
	assert.Equal(t, int64(1), entry.ShiftsNeeded)
	assert.Equal(t, int64(1), entry.DaysNeeded)
	assert.Equal(t, day(1), entry.StartDate)
	assert.Equal(t, day(1), entry.EndDate)
	assert.Equal(t, entities.Quantity(64), entry.PlannedQuantity)
	assert.True(t, entry.Attainment.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "100.0%", entry.AttainmentPercent(entities.ExactAttainment))
}

func TestSchedule_DueTodayIsUnschedulable(t *testing.T) {
	products := []entities.ProductParams{product("B", 8, 2, 64)}
	alloc := allocation(t, map[string]float64{"B": 8}, "B")

	schedule, err := scheduler(t, 1).Schedule(products, alloc, DueDates{"B": today}, today)
	require.NoError(t, err)
	assert.Empty(t, schedule.Timeline)
	require.Len(t, schedule.Errors, 1)

	schedErr := schedule.Errors[0]
	assert.Equal(t, entities.ProductID("B"), schedErr.ProductID)
	assert.Equal(t, day(1), schedErr.EndDate)
	assert.Equal(t, today, schedErr.DueDate)
	assert.Contains(t, schedErr.Error(), "Product B")
	assert.Contains(t, schedErr.Error(), day(1).Format(entities.DateLayout))
}

func TestSchedule_Discretization(t *testing.T) {
	testCases := []struct {
		name         string
		hours        float64
		maxShifts    int
		expectHours  int64
		expectShifts int64
		expectDays   int64
	}{
		{"partial hour rounds up", 8.2, 3, 9, 2, 1},
		{"three shifts fill one day", 24, 3, 24, 3, 1},
		{"fourth shift spills to day two", 25, 3, 25, 4, 2},
		{"one shift per day", 17, 1, 17, 3, 3},
		{"two shifts per day", 40, 2, 40, 5, 3},
		{"any fraction past a whole hour rounds up", 16.0000000001, 3, 17, 3, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			products := []entities.ProductParams{product("P", 10, 1, 100000)}
			alloc := allocation(t, map[string]float64{"P": tc.hours}, "P")

			schedule, err := scheduler(t, tc.maxShifts).Schedule(products, alloc, DueDates{"P": day(30)}, today)
			require.NoError(t, err)
			require.Len(t, schedule.Timeline, 1)

			entry := schedule.Timeline[0]
			assert.Equal(t, tc.expectHours, entry.PlannedHours)
			assert.Equal(t, tc.expectShifts, entry.ShiftsNeeded)
			assert.Equal(t, tc.expectDays, entry.DaysNeeded)
			assert.Equal(t, day(int(tc.expectDays)), entry.EndDate)
			assert.Equal(t, entities.Quantity(tc.expectHours*10), entry.PlannedQuantity)
		})
	}
}

func TestSchedule_EndOnDueDateIsAllowed(t *testing.T) {
	products := []entities.ProductParams{product("P", 10, 1, 10000)}
	alloc := allocation(t, map[string]float64{"P": 48}, "P") // 6 shifts -> 2 days at 3/day

	schedule, err := NewScheduler().Schedule(products, alloc, DueDates{"P": day(2)}, today)
	require.NoError(t, err)
	require.Len(t, schedule.Timeline, 1)
	assert.Equal(t, day(2), schedule.Timeline[0].EndDate)

	schedule, err = NewScheduler().Schedule(products, alloc, DueDates{"P": day(1)}, today)
	require.NoError(t, err)
	assert.Empty(t, schedule.Timeline)
	require.Len(t, schedule.Errors, 1)
}

func TestSchedule_ZeroHoursYieldsIdleEntry(t *testing.T) {
	products := []entities.ProductParams{product("Z", 10, 1, 500)}
	alloc := allocation(t, map[string]float64{"Z": 0}, "Z")

	for _, dueOffset := range []int{0, 4} {
		schedule, err := NewScheduler().Schedule(products, alloc, DueDates{"Z": day(dueOffset)}, today)
		require.NoError(t, err)
		assert.Empty(t, schedule.Errors)
		require.Len(t, schedule.Timeline, 1)

		entry := schedule.Timeline[0]
		assert.True(t, entry.IsIdle())
		assert.Equal(t, int64(0), entry.ShiftsNeeded)
		assert.Equal(t, int64(0), entry.DaysNeeded)
		assert.Equal(t, day(1), entry.StartDate)
		assert.Equal(t, today, entry.EndDate)
		assert.Equal(t, entities.Quantity(0), entry.PlannedQuantity)
		assert.True(t, entry.Attainment.IsZero())
	}
}

func TestSchedule_ZeroHoursPastDueIsError(t *testing.T) {
	products := []entities.ProductParams{product("Z", 10, 1, 500)}
	alloc := allocation(t, map[string]float64{"Z": 0}, "Z")

	schedule, err := NewScheduler().Schedule(products, alloc, DueDates{"Z": day(-5)}, today)
	require.NoError(t, err)
	assert.Empty(t, schedule.Timeline)
	require.Len(t, schedule.Errors, 1)
	assert.Equal(t, today, schedule.Errors[0].EndDate)
	assert.Equal(t, day(-5), schedule.Errors[0].DueDate)
}

func TestSchedule_PartitionAndOrder(t *testing.T) {
	products := []entities.ProductParams{
		product("C", 10, 1, 1000),
		product("A", 10, 1, 1000),
		product("D", 10, 1, 1000),
		product("B", 10, 1, 1000),
	}
	alloc := allocation(t, map[string]float64{"A": 100, "B": 8, "C": 0, "D": 30}, "A", "B", "C", "D")
	due := DueDates{"A": day(2), "B": day(1), "C": day(9), "D": day(9)}

	schedule, err := NewScheduler().Schedule(products, alloc, due, today)
	require.NoError(t, err)

	var timelineIDs, errorIDs []entities.ProductID
	for _, e := range schedule.Timeline {
		timelineIDs = append(timelineIDs, e.ProductID)
	}
	for _, e := range schedule.Errors {
		errorIDs = append(errorIDs, e.ProductID)
	}

	assert.Equal(t, []entities.ProductID{"C", "D", "B"}, timelineIDs)
	assert.Equal(t, []entities.ProductID{"A"}, errorIDs)
	assert.Equal(t, len(products), len(schedule.Timeline)+len(schedule.Errors))
}

func TestSchedule_PlannedQuantityAndAttainment(t *testing.T) {
	p := entities.ProductParams{
		ID:                "F",
		Description:       "Fractional",
		RequestedQuantity: 1000,
		ThroughputPerHour: decimal.RequireFromString("33.3"),
		StaffRequired:     decimal.NewFromInt(1),
	}
	alloc := allocation(t, map[string]float64{"F": 29.7}, "F")

	schedule, err := NewScheduler().Schedule([]entities.ProductParams{p}, alloc, DueDates{"F": day(10)}, today)
	require.NoError(t, err)
	require.Len(t, schedule.Timeline, 1)

	entry := schedule.Timeline[0]
	assert.Equal(t, int64(30), entry.PlannedHours)
	assert.Equal(t, entities.Quantity(999), entry.PlannedQuantity)
	assert.Equal(t, "99.9%", entry.AttainmentPercent(entities.ExactAttainment))
	assert.Equal(t, "100.0%", entry.AttainmentPercent(entities.LegacyAttainment))
}

func TestSchedule_CallerErrors(t *testing.T) {
	products := []entities.ProductParams{product("A", 10, 1, 100)}

	_, err := NewScheduler().Schedule(products, entities.NewAllocation(0), DueDates{"A": day(3)}, today)
	var invalid *entities.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "allocation", invalid.Field)

	alloc := allocation(t, map[string]float64{"A": 1}, "A")
	_, err = NewScheduler().Schedule(products, alloc, DueDates{}, today)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "due_date", invalid.Field)

	_, err = NewSchedulerWithConfig(Config{MaxShiftsPerDay: 0})
	require.Error(t, err)
}

package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AttainmentRounding selects how an attainment ratio is printed as a percentage
type AttainmentRounding int

const (
	// ExactAttainment prints ratio*100 with one decimal (0.994 -> "99.4%")
	ExactAttainment AttainmentRounding = iota
	// LegacyAttainment rounds the ratio to two decimals before scaling (0.994 -> "99.0%"),
	// matching the reports produced by the earlier planning spreadsheet tooling
	LegacyAttainment
)

// String method for AttainmentRounding enum
func (r AttainmentRounding) String() string {
	switch r {
	case ExactAttainment:
		return "exact"
	case LegacyAttainment:
		return "legacy"
	default:
		return "unknown"
	}
}

// ParseAttainmentRounding parses "exact" or "legacy"
func ParseAttainmentRounding(s string) (AttainmentRounding, error) {
	switch s {
	case "", "exact":
		return ExactAttainment, nil
	case "legacy":
		return LegacyAttainment, nil
	default:
		return ExactAttainment, fmt.Errorf("invalid attainment rounding: %s (expected exact or legacy)", s)
	}
}

// FormatAttainment renders an attainment ratio as a percentage string
func FormatAttainment(ratio decimal.Decimal, mode AttainmentRounding) string {
	hundred := decimal.NewFromInt(100)
	if mode == LegacyAttainment {
		return ratio.Round(2).Mul(hundred).StringFixed(1) + "%"
	}
	return ratio.Mul(hundred).StringFixed(1) + "%"
}

// TimelineEntry is the production window of one schedulable product
type TimelineEntry struct {
	ProductID         ProductID       `json:"product_id"`
	Description       string          `json:"description"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	DueDate           time.Time       `json:"due_date"`
	AllocatedHours    float64         `json:"allocated_hours"`
	PlannedHours      int64           `json:"planned_hours"`
	StaffRequired     decimal.Decimal `json:"staff_required"`
	ShiftsNeeded      int64           `json:"shifts_needed"`
	DaysNeeded        int64           `json:"days_needed"`
	RequestedQuantity Quantity        `json:"requested_quantity"`
	PlannedQuantity   Quantity        `json:"planned_quantity"`
	Attainment        decimal.Decimal `json:"attainment"`
}

// AttainmentPercent returns the attainment as a percentage string
func (e TimelineEntry) AttainmentPercent(mode AttainmentRounding) string {
	return FormatAttainment(e.Attainment, mode)
}

// IsIdle reports the degenerate entry of a product that received no hours
func (e TimelineEntry) IsIdle() bool {
	return e.PlannedHours == 0
}

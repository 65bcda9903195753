package entities

import "time"

// ProductID represents a unique product identifier (the catalog "Product #")
type ProductID string

// Quantity represents an integer quantity value for discrete manufacturing units
type Quantity int64

// DateLayout is the calendar date format used in inputs, reports and messages
const DateLayout = "2006-01-02"

// Day truncates a timestamp to its calendar day in UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// TimelineCSV renders the schedulable products
func TimelineCSV(result *dto.PlanResult, mode entities.AttainmentRounding) ([]byte, error) {
	rows := [][]string{{
		"Product Number", "Product Description", "Start Date", "End Date", "Planned Hours", "Staff",
		"Shifts Needed", "Days Needed", "Due Date", "Asked Quantity", "Planned Quantity", "Attainment",
	}}
	for _, e := range result.Timeline {
		rows = append(rows, []string{
			string(e.ProductID),
			e.Description,
			e.StartDate.Format(entities.DateLayout),
			e.EndDate.Format(entities.DateLayout),
			strconv.FormatInt(e.PlannedHours, 10),
			e.StaffRequired.String(),
			strconv.FormatInt(e.ShiftsNeeded, 10),
			strconv.FormatInt(e.DaysNeeded, 10),
			e.DueDate.Format(entities.DateLayout),
			strconv.FormatInt(int64(e.RequestedQuantity), 10),
			strconv.FormatInt(int64(e.PlannedQuantity), 10),
			e.AttainmentPercent(mode),
		})
	}
	return writeRows(rows)
}

// SchedulingErrorsCSV renders the products that miss their due date
func SchedulingErrorsCSV(result *dto.PlanResult, _ entities.AttainmentRounding) ([]byte, error) {
	rows := [][]string{{"Product Number", "Product Description", "End Date", "Due Date", "Message"}}
	for _, e := range result.SchedulingErrors {
		rows = append(rows, []string{
			string(e.ProductID),
			e.Description,
			e.EndDate.Format(entities.DateLayout),
			e.DueDate.Format(entities.DateLayout),
			e.Error(),
		})
	}
	return writeRows(rows)
}

// RejectedOrdersCSV renders the order lines excluded from planning
func RejectedOrdersCSV(result *dto.PlanResult, _ entities.AttainmentRounding) ([]byte, error) {
	rows := [][]string{{"Line", "Product Description", "Reason"}}
	for _, r := range result.Rejected {
		rows = append(rows, []string{strconv.Itoa(r.Line), r.Description, r.Reason})
	}
	return writeRows(rows)
}

func writeRows(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

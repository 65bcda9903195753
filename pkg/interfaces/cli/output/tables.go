package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/store"
)

// WriteTables prints the plan summary and every non-empty section as text tables
func WriteTables(w io.Writer, result *dto.PlanResult, mode entities.AttainmentRounding, elapsed time.Duration) {
	fmt.Fprintf(w, "📊 Production Plan %s\n", result.RunID)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 20+len(result.RunID)))

	summary := newTable(w)
	summary.AppendRows([]table.Row{
		{"Today", result.Today.Format(entities.DateLayout)},
		{"Labor hours available", formatHours(result.TotalLaborHours)},
		{"Labor hours used", formatHours(result.LaborHoursUsed)},
		{"Units planned (LP)", formatHours(result.Objective)},
		{"Max shifts per day", result.MaxShiftsPerDay},
		{"Scheduled", result.Scheduled()},
		{"Unschedulable", result.Unschedulable()},
		{"Rejected orders", len(result.Rejected)},
	})
	if elapsed > 0 {
		summary.AppendRow(table.Row{"Planning time", elapsed.Round(time.Millisecond)})
	}
	summary.Render()

	if len(result.Timeline) > 0 {
		fmt.Fprintf(w, "\n📋 Timeline:\n")
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Product", "Description", "Start", "End", "Due", "Hours", "Staff", "Shifts", "Days", "Asked", "Planned", "Attainment"})
		for _, e := range result.Timeline {
			tw.AppendRow(table.Row{
				e.ProductID,
				e.Description,
				e.StartDate.Format(entities.DateLayout),
				e.EndDate.Format(entities.DateLayout),
				e.DueDate.Format(entities.DateLayout),
				e.PlannedHours,
				e.StaffRequired.String(),
				e.ShiftsNeeded,
				e.DaysNeeded,
				e.RequestedQuantity,
				e.PlannedQuantity,
				e.AttainmentPercent(mode),
			})
		}
		tw.Render()
	}

	if len(result.SchedulingErrors) > 0 {
		fmt.Fprintf(w, "\n⚠️  Scheduling errors:\n")
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Product", "Description", "End", "Due"})
		for _, e := range result.SchedulingErrors {
			tw.AppendRow(table.Row{
				e.ProductID,
				e.Description,
				e.EndDate.Format(entities.DateLayout),
				e.DueDate.Format(entities.DateLayout),
			})
		}
		tw.Render()
	}

	if len(result.Rejected) > 0 {
		fmt.Fprintf(w, "\n🚫 Rejected orders:\n")
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Line", "Description", "Reason"})
		for _, r := range result.Rejected {
			tw.AppendRow(table.Row{r.Line, r.Description, r.Reason})
		}
		tw.Render()
	}

	if len(result.Merged) > 0 {
		fmt.Fprintf(w, "\n🔗 Merged orders:\n")
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Product", "Description", "Lines", "Quantity", "Due"})
		for _, m := range result.Merged {
			tw.AppendRow(table.Row{m.ProductID, m.Description, joinLines(m.Lines), m.Quantity, m.DueDate.Format(entities.DateLayout)})
		}
		tw.Render()
	}
}

// WriteRunList prints stored run summaries
func WriteRunList(w io.Writer, runs []store.RunSummary) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Run", "Created", "Today", "Hours", "Used", "Units", "Scheduled", "Unschedulable", "Rejected"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.RunID,
			r.CreatedAt.Format(time.RFC3339),
			r.Today.Format(entities.DateLayout),
			formatHours(r.TotalLaborHours),
			formatHours(r.LaborHoursUsed),
			formatHours(r.Objective),
			r.Scheduled,
			r.Unschedulable,
			r.Rejected,
		})
	}
	tw.Render()
}

// WriteProductHistory renders one product's outcome across stored runs
func WriteProductHistory(w io.Writer, history []store.ProductRun) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Run", "Created", "Outcome", "Start", "End", "Due", "Hours", "Asked", "Planned", "Attainment"})
	for _, p := range history {
		if !p.Scheduled {
			tw.AppendRow(table.Row{p.RunID, p.CreatedAt.Format(time.RFC3339), "misses due date", "", p.EndDate, p.DueDate, "", "", "", ""})
			continue
		}
		tw.AppendRow(table.Row{
			p.RunID,
			p.CreatedAt.Format(time.RFC3339),
			"scheduled",
			p.StartDate,
			p.EndDate,
			p.DueDate,
			p.PlannedHours,
			p.RequestedQuantity,
			p.PlannedQuantity,
			p.Attainment,
		})
	}
	tw.Render()
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprint(l)
	}
	return strings.Join(parts, ",")
}

package output

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

const day = 24 * time.Hour

// GanttChart lays out the production timeline as SVG
type GanttChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	StartTime    time.Time
	EndTime      time.Time
}

// GanttBar is one product row
type GanttBar struct {
	ProductID   entities.ProductID
	Description string
	StartDate   time.Time
	EndDate     time.Time
	DueDate     time.Time
	Label       string
	Color       string
	Late        bool
}

// NewGanttChart sizes a chart for the result's timeline and scheduling errors
func NewGanttChart(result *dto.PlanResult) *GanttChart {
	gc := &GanttChart{
		Width:        1200,
		MarginLeft:   260,
		MarginTop:    60,
		MarginRight:  60,
		MarginBottom: 60,
		RowHeight:    30,
	}
	rows := len(result.Timeline) + len(result.SchedulingErrors)
	gc.Height = gc.MarginTop + gc.MarginBottom + max(rows, 1)*gc.RowHeight

	start := result.Today
	end := result.Today.Add(day)
	for _, bar := range gc.bars(result) {
		if bar.StartDate.Before(start) {
			start = bar.StartDate
		}
		for _, t := range []time.Time{bar.EndDate.Add(day), bar.DueDate.Add(day)} {
			if t.After(end) {
				end = t
			}
		}
	}
	gc.StartTime = start
	gc.EndTime = end
	return gc
}

// bars returns timeline rows first, then scheduling errors, both in result order
func (gc *GanttChart) bars(result *dto.PlanResult) []GanttBar {
	bars := make([]GanttBar, 0, len(result.Timeline)+len(result.SchedulingErrors))
	for _, e := range result.Timeline {
		bars = append(bars, GanttBar{
			ProductID:   e.ProductID,
			Description: e.Description,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			DueDate:     e.DueDate,
			Label:       fmt.Sprintf("%d / %d", e.PlannedQuantity, e.RequestedQuantity),
			Color:       barColor(e),
		})
	}
	for _, e := range result.SchedulingErrors {
		bars = append(bars, GanttBar{
			ProductID:   e.ProductID,
			Description: e.Description,
			StartDate:   result.Today.Add(day),
			EndDate:     e.EndDate,
			DueDate:     e.DueDate,
			Label:       "late",
			Color:       "#F44336",
			Late:        true,
		})
	}
	return bars
}

// GenerateSVG renders the chart
func (gc *GanttChart) GenerateSVG(result *dto.PlanResult) string {
	bars := gc.bars(result)
	if len(bars) == 0 {
		return gc.generateEmptyChart()
	}

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height)
	svg.WriteString(`<style>`)
	svg.WriteString(`.label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.bar-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`.due { stroke: #B71C1C; stroke-width: 2; stroke-dasharray: 4 2; }`)
	svg.WriteString(`</style>`)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height)

	gc.drawTimeAxis(&svg, len(bars))
	for i, bar := range bars {
		gc.drawBar(&svg, bar, gc.MarginTop+i*gc.RowHeight)
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}

func (gc *GanttChart) x(t time.Time) int {
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	total := gc.EndTime.Sub(gc.StartTime)
	return gc.MarginLeft + int(float64(t.Sub(gc.StartTime))/float64(total)*float64(chartWidth))
}

// drawTimeAxis draws one grid line per day, labelling every day on short horizons and every week otherwise
func (gc *GanttChart) drawTimeAxis(svg *strings.Builder, rows int) {
	days := int(gc.EndTime.Sub(gc.StartTime) / day)
	step := 1
	if days > 31 {
		step = 7
	}
	gridBottom := gc.MarginTop + rows*gc.RowHeight
	for i := 0; i <= days; i++ {
		t := gc.StartTime.Add(time.Duration(i) * day)
		x := gc.x(t)
		fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`, x, gc.MarginTop, x, gridBottom)
		if i%step == 0 {
			fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label" text-anchor="middle">%s</text>`,
				x, gridBottom+15, t.Format("Jan 2"))
		}
	}
}

func (gc *GanttChart) drawBar(svg *strings.Builder, bar GanttBar, rowY int) {
	fmt.Fprintf(svg, `<text x="%d" y="%d" class="label" text-anchor="end">%s</text>`,
		gc.MarginLeft-10, rowY+gc.RowHeight/2+4, html.EscapeString(bar.Description))

	x := gc.x(bar.StartDate)
	width := max(gc.x(bar.EndDate.Add(day))-x, 2)
	fmt.Fprintf(svg, `<g><title>%s</title>`, html.EscapeString(fmt.Sprintf("%s %s: %s to %s, due %s",
		bar.ProductID, bar.Description,
		bar.StartDate.Format(entities.DateLayout),
		bar.EndDate.Format(entities.DateLayout),
		bar.DueDate.Format(entities.DateLayout))))
	fmt.Fprintf(svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="bar"/>`,
		x, rowY+4, width, gc.RowHeight-8, bar.Color)
	if width > 50 {
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="bar-text" text-anchor="middle">%s</text>`,
			x+width/2, rowY+gc.RowHeight/2+3, bar.Label)
	}
	svg.WriteString(`</g>`)

	due := gc.x(bar.DueDate.Add(day))
	fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="due"/>`, due, rowY+2, due, rowY+gc.RowHeight-2)
}

func barColor(e entities.TimelineEntry) string {
	switch {
	case e.IsIdle():
		return "#9E9E9E"
	case e.Attainment.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return "#4CAF50"
	default:
		return "#FF9800"
	}
}

func (gc *GanttChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+
		`<rect width="%d" height="%d" fill="white"/>`+
		`<text x="%d" y="%d" text-anchor="middle" font-family="Arial, sans-serif" font-size="16" fill="#666">No products planned</text>`+
		`</svg>`, gc.Width, gc.Height, gc.Width, gc.Height, gc.Width/2, gc.Height/2)
}

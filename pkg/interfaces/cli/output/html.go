package output

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTMLReport renders a self-contained HTML page with the Gantt chart and result tables
type HTMLReport struct {
	now func() time.Time
}

// TemplateData contains all data for rendering the HTML template
type TemplateData struct {
	Result      *dto.PlanResult
	Gantt       template.HTML
	Rows        []TimelineRow
	Elapsed     string
	GeneratedAt string
}

// TimelineRow is a timeline entry with its formatted attainment
type TimelineRow struct {
	entities.TimelineEntry
	AttainmentText string
}

// NewHTMLReport creates an HTML report generator
func NewHTMLReport() *HTMLReport {
	return &HTMLReport{now: time.Now}
}

// Render executes the report template
func (hr *HTMLReport) Render(result *dto.PlanResult, config Config) (string, error) {
	rows := make([]TimelineRow, len(result.Timeline))
	for i, e := range result.Timeline {
		rows[i] = TimelineRow{TimelineEntry: e, AttainmentText: e.AttainmentPercent(config.Attainment)}
	}

	data := &TemplateData{
		Result:      result,
		Gantt:       template.HTML(NewGanttChart(result).GenerateSVG(result)),
		Rows:        rows,
		Elapsed:     formatDuration(config.Elapsed),
		GeneratedAt: hr.now().Format("2006-01-02 15:04:05"),
	}

	tmpl, err := template.New("report.html").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format(entities.DateLayout) },
	}).ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "n/a"
	case d < time.Second:
		return "< 1s"
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

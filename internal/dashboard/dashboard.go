// Package dashboard renders a finished run in the terminal.
package dashboard

import (
	"fmt"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/burnish-dev/burnish/internal/report"
)

// Dashboard shows a one-shot terminal view of a report snapshot. Unlike
// a live load-test dashboard there is nothing to refresh; the view is
// rendered once and stays up until dismissed with q or Ctrl-C.
type Dashboard struct {
	snap report.Snapshot

	grid        *ui.Grid
	summaryPara *widgets.Paragraph
	metricsList *widgets.List
	rpsSparkle  *widgets.SparklineGroup
	statusBars  *widgets.BarChart
}

// New initializes the terminal UI for the given snapshot.
func New(snap report.Snapshot) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := &Dashboard{snap: snap}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = d.summaryText()
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.metricsList = widgets.NewList()
	d.metricsList.Title = "Metrics"
	d.metricsList.Rows = d.metricRows()
	d.metricsList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.metricsList.BorderStyle.Fg = ui.ColorCyan

	spark := widgets.NewSparkline()
	spark.Title = "req/s"
	spark.LineColor = ui.ColorGreen
	spark.Data = d.rpsData()
	d.rpsSparkle = widgets.NewSparklineGroup(spark)
	d.rpsSparkle.Title = "Requests Per Second"
	d.rpsSparkle.BorderStyle.Fg = ui.ColorCyan

	d.statusBars = widgets.NewBarChart()
	d.statusBars.Title = "Status Codes"
	d.statusBars.BorderStyle.Fg = ui.ColorCyan
	d.statusBars.BarColors = []ui.Color{ui.ColorBlue}
	for _, sc := range d.snap.StatusCounts {
		d.statusBars.Labels = append(d.statusBars.Labels, sc.Code)
		d.statusBars.Data = append(d.statusBars.Data, float64(sc.Count))
	}
	if len(d.statusBars.Data) == 0 {
		d.statusBars.Labels = []string{"n/a"}
		d.statusBars.Data = []float64{0}
	}
}

func (d *Dashboard) setupGrid() {
	d.grid = ui.NewGrid()
	termWidth, termHeight := ui.TerminalDimensions()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.3,
			ui.NewCol(0.5, d.summaryPara),
			ui.NewCol(0.5, d.rpsSparkle),
		),
		ui.NewRow(0.7,
			ui.NewCol(0.6, d.metricsList),
			ui.NewCol(0.4, d.statusBars),
		),
	)
}

// Run renders the dashboard and blocks until the user dismisses it.
func (d *Dashboard) Run() error {
	defer ui.Close()

	ui.Render(d.grid)
	for e := range ui.PollEvents() {
		switch e.ID {
		case "q", "<C-c>":
			return nil
		case "<Resize>":
			payload := e.Payload.(ui.Resize)
			d.grid.SetRect(0, 0, payload.Width, payload.Height)
			ui.Clear()
			ui.Render(d.grid)
		}
	}
	return nil
}

func (d *Dashboard) summaryText() string {
	var b strings.Builder
	s := d.snap.Summary

	fmt.Fprintf(&b, "Run: %s\n", d.snap.RunID)
	if s.HasRequests {
		fmt.Fprintf(&b, "Requests: %d\n", s.TotalRequests)
		fmt.Fprintf(&b, "Success: %d (%.1f%%)\n", s.Successes, s.SuccessRate)
		fmt.Fprintf(&b, "Failed: %d\n", s.Failures)
	} else {
		b.WriteString("Requests: no data\n")
	}
	if s.HasDuration {
		fmt.Fprintf(&b, "Duration: %.2fs\n", s.Duration)
	}
	if s.HasLatency {
		fmt.Fprintf(&b, "Avg Latency: %.2f\n", s.AvgLatency)
	}
	if s.LinesSkipped > 0 {
		fmt.Fprintf(&b, "Skipped Lines: %d\n", s.LinesSkipped)
	}
	return b.String()
}

func (d *Dashboard) metricRows() []string {
	rows := make([]string, 0, len(d.snap.TimeMetrics)+len(d.snap.DataMetrics))
	for _, row := range append(append([]report.MetricRow{}, d.snap.TimeMetrics...), d.snap.DataMetrics...) {
		if !row.HasData {
			rows = append(rows, fmt.Sprintf("%s: no data", row.Name))
			continue
		}
		rows = append(rows, fmt.Sprintf(
			"%s: med=%.1f p90=%.1f p95=%.1f p99=%.1f max=%.1f",
			row.Name, row.Stats.Median, row.Stats.P90, row.Stats.P95, row.Stats.P99, row.Stats.Max,
		))
	}
	if len(rows) == 0 {
		rows = append(rows, "No metrics found")
	}
	return rows
}

func (d *Dashboard) rpsData() []float64 {
	if len(d.snap.RequestRate) == 0 {
		return []float64{0}
	}
	data := make([]float64, 0, len(d.snap.RequestRate))
	for _, b := range d.snap.RequestRate {
		data = append(data, float64(b.Count))
	}
	return data
}

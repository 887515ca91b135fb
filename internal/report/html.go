package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/burnish-dev/burnish/internal/timeseries"
)

// chartData is the JSON payload embedded in the HTML report for the
// uPlot charts.
type chartData struct {
	VUTimes     []float64 `json:"vu_t"`
	VUValues    []float64 `json:"vu_v"`
	LatTimes    []float64 `json:"lat_t"`
	LatValues   []float64 `json:"lat_v"`
	CurvePcts   []float64 `json:"curve_p"`
	CurveValues []float64 `json:"curve_v"`
	RPSSeconds  []float64 `json:"rps_t"`
	RPSCounts   []float64 `json:"rps_v"`
}

// bar is one precomputed CSS bar row. Percent is relative to the tallest
// bar in the same chart.
type bar struct {
	Label   string
	Sub     string
	Count   int64
	Percent float64
}

type htmlData struct {
	Snapshot
	ChartJSON      string
	HasSeries      bool
	HasPercentiles bool
	P90            float64
	P95            float64
	P99            float64
	StatusBars     []bar
	DistBars       []bar
}

// GenerateHTMLReport renders a self-contained HTML document for the
// snapshot. Output is deterministic for a given snapshot; only the
// embedded generation timestamp and run ID vary between runs.
func GenerateHTMLReport(w io.Writer, snap Snapshot) error {
	charts := chartData{
		VUTimes:     times(snap.VirtualUsers),
		VUValues:    values(snap.VirtualUsers),
		LatTimes:    times(snap.Latencies),
		LatValues:   values(snap.Latencies),
		CurvePcts:   times(snap.PercentileCurve),
		CurveValues: values(snap.PercentileCurve),
	}
	for _, b := range snap.RequestRate {
		charts.RPSSeconds = append(charts.RPSSeconds, float64(b.Second))
		charts.RPSCounts = append(charts.RPSCounts, float64(b.Count))
	}

	chartJSON, err := json.Marshal(charts)
	if err != nil {
		return fmt.Errorf("failed to marshal chart data: %w", err)
	}

	data := htmlData{
		Snapshot:   snap,
		ChartJSON:  string(chartJSON),
		HasSeries:  len(snap.VirtualUsers) > 0 || len(snap.Latencies) > 0 || len(snap.RequestRate) > 0,
		StatusBars: statusBars(snap.StatusCounts),
		DistBars:   distBars(snap.LatencyDist, snap.BucketWidth),
	}
	if len(snap.PercentileCurve) == 101 {
		data.HasPercentiles = true
		data.P90 = snap.PercentileCurve[90].Value
		data.P95 = snap.PercentileCurve[95].Value
		data.P99 = snap.PercentileCurve[99].Value
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatCount": func(f float64) string {
			return fmt.Sprintf("%.0f", f)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func times(points []timeseries.Point) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Time)
	}
	return out
}

func values(points []timeseries.Point) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Value)
	}
	return out
}

func statusBars(counts []StatusCount) []bar {
	var max int64
	for _, sc := range counts {
		if sc.Count > max {
			max = sc.Count
		}
	}
	if max == 0 {
		return nil
	}
	bars := make([]bar, 0, len(counts))
	for _, sc := range counts {
		bars = append(bars, bar{
			Label:   sc.Code,
			Sub:     sc.Label,
			Count:   sc.Count,
			Percent: float64(sc.Count) / float64(max) * 100,
		})
	}
	return bars
}

func distBars(dist []timeseries.DistBucket, width float64) []bar {
	var max int64
	for _, b := range dist {
		if b.Count > max {
			max = b.Count
		}
	}
	if max == 0 {
		return nil
	}
	bars := make([]bar, 0, len(dist))
	for _, b := range dist {
		bars = append(bars, bar{
			Label:   fmt.Sprintf("%.0f-%.0f", b.Floor, b.Floor+width),
			Count:   b.Count,
			Percent: float64(b.Count) / float64(max) * 100,
		})
	}
	return bars
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Burnish Load Test Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .chart-container {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
            border: 1px solid #e5e7eb;
        }
        .chart-container h3 {
            font-size: 1.1rem;
            margin-bottom: 15px;
            color: #4b5563;
        }
        .chart {
            width: 100%;
            height: 300px;
        }
        .bars .row {
            display: grid;
            grid-template-columns: 180px 1fr 80px;
            gap: 10px;
            align-items: center;
            margin-bottom: 8px;
        }
        .bars .label {
            font-size: 0.9rem;
            color: #4b5563;
            text-align: right;
        }
        .bars .label .sub {
            display: block;
            font-size: 0.75rem;
            color: #9ca3af;
        }
        .bars .track {
            background: #f1f5f9;
            border-radius: 4px;
            height: 22px;
        }
        .bars .fill {
            background: #667eea;
            border-radius: 4px;
            height: 100%;
        }
        .bars .count {
            font-size: 0.9rem;
            color: #2c3e50;
            font-weight: 600;
        }
        .annotations {
            display: flex;
            gap: 20px;
            margin-bottom: 15px;
        }
        .annotations span {
            font-size: 0.9rem;
            color: #6c757d;
        }
        .annotations strong {
            color: #2c3e50;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>🔥 Burnish Load Test Report</h1>
            {{if .Summary.Source}}
            <div class="meta" style="margin-top: 5px;">Source: {{.Summary.Source}}</div>
            {{end}}
            <div class="meta">Run: {{.RunID}} | Generated: {{.GeneratedAt.Format "2006-01-02T15:04:05Z07:00"}}{{if .Summary.HasDuration}} | Duration: {{formatFloat .Summary.Duration}}s{{end}}</div>
        </header>

        <div class="content">
            <!-- Summary Cards -->
            {{if .Summary.HasRequests}}
            <div class="grid">
                <div class="card">
                    <h3>Total Requests</h3>
                    <div class="value">{{.Summary.TotalRequests}}</div>
                </div>
                <div class="card success">
                    <h3>Successful</h3>
                    <div class="value">{{.Summary.Successes}}</div>
                    <div class="subvalue">{{formatPercent .Summary.Successes .Summary.TotalRequests}}%</div>
                </div>
                <div class="card error">
                    <h3>Failed</h3>
                    <div class="value">{{.Summary.Failures}}</div>
                    <div class="subvalue">{{formatPercent .Summary.Failures .Summary.TotalRequests}}%</div>
                </div>
                {{if .Summary.HasLatency}}
                <div class="card">
                    <h3>Avg Latency</h3>
                    <div class="value">{{formatFloat .Summary.AvgLatency}}</div>
                </div>
                {{end}}
            </div>
            {{else}}
            <div class="no-data">No request samples found in the input log.</div>
            {{end}}

            <!-- Charts -->
            {{if .HasSeries}}
            <div class="section">
                <h2>Performance Over Time</h2>

                <div class="chart-container">
                    <h3>Virtual Users &amp; Response Time</h3>
                    <div id="vu-chart" class="chart"></div>
                </div>

                <div class="chart-container">
                    <h3>Requests Per Second</h3>
                    <div id="rps-chart" class="chart"></div>
                </div>
            </div>
            {{end}}

            {{if .HasPercentiles}}
            <div class="section">
                <h2>Latency Percentiles</h2>
                <div class="chart-container">
                    <div class="annotations">
                        <span>P90: <strong>{{formatFloat .P90}}</strong></span>
                        <span>P95: <strong>{{formatFloat .P95}}</strong></span>
                        <span>P99: <strong>{{formatFloat .P99}}</strong></span>
                    </div>
                    <div id="pct-chart" class="chart"></div>
                </div>
            </div>
            {{end}}

            {{if .DistBars}}
            <div class="section">
                <h2>Latency Distribution</h2>
                <div class="chart-container bars">
                    {{range .DistBars}}
                    <div class="row">
                        <div class="label">{{.Label}}</div>
                        <div class="track"><div class="fill" style="width: {{formatFloat .Percent}}%"></div></div>
                        <div class="count">{{.Count}}</div>
                    </div>
                    {{end}}
                </div>
            </div>
            {{end}}

            {{if .StatusBars}}
            <div class="section">
                <h2>Status Codes</h2>
                <div class="chart-container bars">
                    {{range .StatusBars}}
                    <div class="row">
                        <div class="label">{{.Label}}<span class="sub">{{.Sub}}</span></div>
                        <div class="track"><div class="fill" style="width: {{formatFloat .Percent}}%"></div></div>
                        <div class="count">{{.Count}}</div>
                    </div>
                    {{end}}
                </div>
            </div>
            {{end}}

            <!-- Metric Tables -->
            {{if .TimeMetrics}}
            <div class="section">
                <h2>Metrics</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Metric</th>
                            <th>Min</th>
                            <th>Max</th>
                            <th>Mean</th>
                            <th>Median</th>
                            <th>P90</th>
                            <th>P95</th>
                            <th>P99</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .TimeMetrics}}
                        <tr>
                            <td><strong>{{.Name}}</strong></td>
                            {{if .HasData}}
                            <td>{{formatFloat .Stats.Min}}</td>
                            <td>{{formatFloat .Stats.Max}}</td>
                            <td>{{formatFloat .Stats.Mean}}</td>
                            <td>{{formatFloat .Stats.Median}}</td>
                            <td>{{formatFloat .Stats.P90}}</td>
                            <td>{{formatFloat .Stats.P95}}</td>
                            <td>{{formatFloat .Stats.P99}}</td>
                            {{else}}
                            <td colspan="7"><em>no data</em></td>
                            {{end}}
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .DataMetrics}}
            <div class="section">
                <h2>Data Transfer</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Metric</th>
                            <th>Min</th>
                            <th>Max</th>
                            <th>Mean</th>
                            <th>Total</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .DataMetrics}}
                        <tr>
                            <td><strong>{{.Name}}</strong></td>
                            {{if .HasData}}
                            <td>{{formatFloat .Stats.Min}}</td>
                            <td>{{formatFloat .Stats.Max}}</td>
                            <td>{{formatFloat .Stats.Mean}}</td>
                            <td>{{formatCount .Stats.Sum}}</td>
                            {{else}}
                            <td colspan="4"><em>no data</em></td>
                            {{end}}
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if .HasSeries}}
    <script>
        const charts = JSON.parse({{.ChartJSON}});

        function relative(ts) {
            if (!ts || ts.length === 0) return ts;
            const start = ts[0];
            return ts.map(t => t - start);
        }

        if (charts.vu_t.length > 0 || charts.lat_t.length > 0) {
            // Align both series on the union of their timestamps so the
            // overlay shares one x axis.
            const allT = [...charts.vu_t, ...charts.lat_t].sort((a, b) => a - b);
            const uniq = allT.filter((t, i) => i === 0 || t !== allT[i - 1]);
            const start = uniq.length ? uniq[0] : 0;
            const xs = uniq.map(t => t - start);

            const vuByT = new Map(charts.vu_t.map((t, i) => [t, charts.vu_v[i]]));
            const latByT = new Map(charts.lat_t.map((t, i) => [t, charts.lat_v[i]]));
            const vuSeries = uniq.map(t => vuByT.has(t) ? vuByT.get(t) : null);
            const latSeries = uniq.map(t => latByT.has(t) ? latByT.get(t) : null);

            new uPlot({
                title: "Virtual Users & Response Time",
                width: document.getElementById('vu-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false }, vu: { auto: true } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "Latency",
                        stroke: "#667eea",
                        width: 2,
                        points: { show: true, size: 4 },
                        spanGaps: true
                    },
                    {
                        label: "VUs",
                        scale: "vu",
                        stroke: "#10b981",
                        width: 2,
                        spanGaps: true
                    }
                ],
                axes: [
                    { label: "Time (seconds)" },
                    { label: "Latency" },
                    { label: "Virtual Users", scale: "vu", side: 1 }
                ]
            }, [xs, latSeries, vuSeries], document.getElementById('vu-chart'));
        }

        if (charts.rps_t.length > 0) {
            new uPlot({
                title: "Requests Per Second",
                width: document.getElementById('rps-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "RPS",
                        stroke: "#667eea",
                        fill: "rgba(102, 126, 234, 0.1)",
                        width: 2
                    }
                ],
                axes: [
                    { label: "Time (seconds)" },
                    { label: "Requests/sec" }
                ]
            }, [relative(charts.rps_t), charts.rps_v], document.getElementById('rps-chart'));
        }

        if (charts.curve_p.length > 0 && document.getElementById('pct-chart')) {
            new uPlot({
                title: "Latency Percentile Curve",
                width: document.getElementById('pct-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Percentile" },
                    {
                        label: "Latency",
                        stroke: "#f59e0b",
                        width: 2
                    }
                ],
                axes: [
                    { label: "Percentile" },
                    { label: "Latency" }
                ]
            }, [charts.curve_p, charts.curve_v], document.getElementById('pct-chart'));
        }
    </script>
    {{end}}
</body>
</html>
`

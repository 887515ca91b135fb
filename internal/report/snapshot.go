// Package report turns finalized aggregates into rendered artifacts.
//
// Every renderer (text, JSON, YAML, HTML, terminal dashboard) consumes
// the same immutable Snapshot; none reaches back into aggregation state,
// so rendering a snapshot twice yields structurally identical output.
package report

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/burnish-dev/burnish/internal/aggregate"
	"github.com/burnish-dev/burnish/internal/stream"
	"github.com/burnish-dev/burnish/internal/timeseries"
)

// MetricRow is one metric's line in a statistics table.
type MetricRow struct {
	Name    string            `json:"name" yaml:"name"`
	Kind    stream.Kind       `json:"kind" yaml:"kind"`
	Unit    stream.Unit       `json:"unit" yaml:"unit"`
	HasData bool              `json:"has_data" yaml:"has_data"`
	Stats   aggregate.Summary `json:"stats" yaml:"stats"`
}

// StatusCount is one bar of the status-code chart.
type StatusCount struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
	Count int64  `json:"count" yaml:"count"`
}

// RunSummary is the report's headline block. Has* guards let renderers
// omit dependent lines instead of printing zeros when the input log
// never carried the underlying metric.
type RunSummary struct {
	Source        string  `json:"source" yaml:"source"`
	HasRequests   bool    `json:"has_requests" yaml:"has_requests"`
	TotalRequests int64   `json:"total_requests" yaml:"total_requests"`
	Successes     int64   `json:"successes" yaml:"successes"`
	Failures      int64   `json:"failures" yaml:"failures"`
	SuccessRate   float64 `json:"success_rate" yaml:"success_rate"`
	HasLatency    bool    `json:"has_latency" yaml:"has_latency"`
	AvgLatency    float64 `json:"avg_latency" yaml:"avg_latency"`
	HasDuration   bool    `json:"has_duration" yaml:"has_duration"`
	Duration      float64 `json:"duration_seconds" yaml:"duration_seconds"`
	BytesSent     float64 `json:"bytes_sent" yaml:"bytes_sent"`
	BytesRecv     float64 `json:"bytes_received" yaml:"bytes_received"`
	LinesRead     int     `json:"lines_read" yaml:"lines_read"`
	LinesSkipped  int     `json:"lines_skipped" yaml:"lines_skipped"`
}

// Snapshot is the immutable render input for one run.
type Snapshot struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	Summary     RunSummary  `json:"summary" yaml:"summary"`
	TimeMetrics []MetricRow `json:"time_metrics" yaml:"time_metrics"`
	DataMetrics []MetricRow `json:"data_metrics" yaml:"data_metrics"`

	VirtualUsers    []timeseries.Point      `json:"virtual_users" yaml:"virtual_users"`
	Latencies       []timeseries.Point      `json:"latencies" yaml:"latencies"`
	PercentileCurve []timeseries.Point      `json:"percentile_curve" yaml:"percentile_curve"`
	RequestRate     []timeseries.RateBucket `json:"request_rate" yaml:"request_rate"`
	StatusCounts    []StatusCount           `json:"status_counts" yaml:"status_counts"`
	LatencyDist     []timeseries.DistBucket `json:"latency_distribution" yaml:"latency_distribution"`
	BucketWidth     float64                 `json:"bucket_width" yaml:"bucket_width"`
}

// BuildOptions parameterizes snapshot construction. Zero values get
// sensible defaults: a fresh ULID run ID and the current wall clock.
type BuildOptions struct {
	RunID         string
	GeneratedAt   time.Time
	Source        string
	LatencyMetric string
	ReadStats     stream.ReadStats
}

// Build assembles the snapshot handed to every renderer. Aggregation
// must be finished (Collector.Finish called) before building.
func Build(agg *aggregate.Aggregator, col *timeseries.Collector, opts BuildOptions) Snapshot {
	if opts.RunID == "" {
		opts.RunID = ulid.Make().String()
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	snap := Snapshot{
		RunID:           opts.RunID,
		GeneratedAt:     opts.GeneratedAt,
		VirtualUsers:    col.VirtualUsers(),
		Latencies:       col.Latencies(),
		PercentileCurve: percentileCurve(col.Latencies()),
		RequestRate:     col.RequestRate(),
		StatusCounts:    statusCounts(col.StatusCounts()),
		LatencyDist:     col.LatencyDistribution(),
		BucketWidth:     col.BucketWidth(),
	}

	for _, m := range agg.Metrics() {
		stats, ok := m.Compute()
		row := MetricRow{
			Name:    m.Def.Name,
			Kind:    m.Def.Kind,
			Unit:    m.Def.Unit,
			HasData: ok,
			Stats:   stats,
		}
		if m.Def.Unit == stream.UnitData {
			snap.DataMetrics = append(snap.DataMetrics, row)
		} else {
			snap.TimeMetrics = append(snap.TimeMetrics, row)
		}
	}

	totals := agg.Totals()
	snap.Summary = RunSummary{
		Source:        opts.Source,
		HasRequests:   totals.Requests > 0,
		TotalRequests: totals.Requests,
		Successes:     totals.Successes,
		Failures:      totals.Failures,
		BytesSent:     totals.BytesSent,
		BytesRecv:     totals.BytesRecv,
		LinesRead:     opts.ReadStats.Lines,
		LinesSkipped:  opts.ReadStats.Malformed,
	}
	if totals.Requests > 0 {
		snap.Summary.SuccessRate = float64(totals.Successes) / float64(totals.Requests) * 100
	}
	if totals.SampleSpanOK {
		snap.Summary.HasDuration = true
		snap.Summary.Duration = totals.LastSample - totals.FirstSample
	}
	if lat := agg.Metric(opts.LatencyMetric); lat != nil {
		if stats, ok := lat.Compute(); ok {
			snap.Summary.HasLatency = true
			snap.Summary.AvgLatency = stats.Mean
		}
	}

	return snap
}

// percentileCurve maps the filtered latency samples onto 101 points,
// one per whole percentile, using the same nearest-rank rule as the
// statistics tables.
func percentileCurve(latencies []timeseries.Point) []timeseries.Point {
	if len(latencies) == 0 {
		return nil
	}

	sorted := make([]float64, len(latencies))
	for i, p := range latencies {
		sorted[i] = p.Value
	}
	sort.Float64s(sorted)

	curve := make([]timeseries.Point, 0, 101)
	for p := 0; p <= 100; p++ {
		idx := int(math.Floor(float64(len(sorted)) * float64(p) / 100))
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		curve = append(curve, timeseries.Point{Time: float64(p), Value: sorted[idx]})
	}
	return curve
}

func statusCounts(counts map[string]int64) []StatusCount {
	if len(counts) == 0 {
		return nil
	}
	out := make([]StatusCount, 0, len(counts))
	for code, count := range counts {
		out = append(out, StatusCount{Code: code, Label: statusLabel(code), Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// statusLabel resolves a status code tag to a human-readable phrase.
func statusLabel(code string) string {
	n, err := strconv.Atoi(code)
	if err != nil {
		return "Unknown"
	}
	if text := http.StatusText(n); text != "" {
		return text
	}
	return "Unknown"
}

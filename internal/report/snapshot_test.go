package report_test

import (
	"math"
	"testing"
	"time"

	"github.com/burnish-dev/burnish/internal/aggregate"
	"github.com/burnish-dev/burnish/internal/report"
	"github.com/burnish-dev/burnish/internal/stream"
	"github.com/burnish-dev/burnish/internal/timeseries"
)

func successByStatus(tags map[string]string) bool {
	return tags["status"] == "200"
}

func defaultOptions() aggregate.Options {
	return aggregate.Options{
		Success:            successByStatus,
		Filtered:           []string{"http_req_duration"},
		RequestsMetric:     "http_reqs",
		DataSentMetric:     "data_sent",
		DataReceivedMetric: "data_received",
	}
}

func buildFixture(t *testing.T) report.Snapshot {
	t.Helper()

	agg := aggregate.New(defaultOptions())
	col := timeseries.New(timeseries.Options{
		Success:        successByStatus,
		VUMetric:       "vus",
		LatencyMetric:  "http_req_duration",
		RequestsMetric: "http_reqs",
		StatusTag:      "status",
	})

	agg.ObserveDefinition(stream.Definition{Name: "http_req_duration", Kind: stream.KindTrend, Unit: stream.UnitTime})
	agg.ObserveDefinition(stream.Definition{Name: "data_sent", Kind: stream.KindCounter, Unit: stream.UnitData})

	samples := []stream.Sample{
		{Metric: "http_reqs", Time: 1.1, Value: 1, Tags: map[string]string{"status": "200"}},
		{Metric: "http_reqs", Time: 1.4, Value: 1, Tags: map[string]string{"status": "200"}},
		{Metric: "http_reqs", Time: 1.9, Value: 1, Tags: map[string]string{"status": "404"}},
		{Metric: "http_reqs", Time: 2.2, Value: 1, Tags: map[string]string{"status": "200"}},
		{Metric: "http_req_duration", Time: 1.1, Value: 40, Tags: map[string]string{"status": "200"}},
		{Metric: "http_req_duration", Time: 1.4, Value: 60, Tags: map[string]string{"status": "200"}},
		{Metric: "http_req_duration", Time: 2.2, Value: 80, Tags: map[string]string{"status": "200"}},
		{Metric: "vus", Time: 1.0, Value: 5},
		{Metric: "data_sent", Time: 1.5, Value: 1024},
	}
	for _, s := range samples {
		agg.ObserveSample(s)
		col.ObserveSample(s)
	}
	col.Finish()

	return report.Build(agg, col, report.BuildOptions{
		RunID:         "01TESTRUN",
		GeneratedAt:   time.Unix(1700000000, 0).UTC(),
		Source:        "run.log",
		LatencyMetric: "http_req_duration",
		ReadStats:     stream.ReadStats{Lines: 11, Samples: 9, Definitions: 2},
	})
}

func TestBuildSummary(t *testing.T) {
	snap := buildFixture(t)

	s := snap.Summary
	if !s.HasRequests || s.TotalRequests != 4 {
		t.Errorf("expected 4 requests, got %+v", s)
	}
	if s.Successes != 3 || s.Failures != 1 {
		t.Errorf("expected 3 successes and 1 failure, got %d/%d", s.Successes, s.Failures)
	}
	if s.SuccessRate != 75 {
		t.Errorf("expected success rate 75, got %v", s.SuccessRate)
	}
	if !s.HasLatency || s.AvgLatency != 60 {
		t.Errorf("expected average latency 60, got %+v", s)
	}
	if !s.HasDuration || math.Abs(s.Duration-1.2) > 1e-9 {
		t.Errorf("expected duration 1.2, got %v", s.Duration)
	}
	if s.BytesSent != 1024 {
		t.Errorf("expected 1024 bytes sent, got %v", s.BytesSent)
	}
	if s.LinesRead != 11 {
		t.Errorf("expected 11 lines read, got %d", s.LinesRead)
	}
	if s.Source != "run.log" {
		t.Errorf("expected source run.log, got %q", s.Source)
	}
}

func TestBuildMetricTables(t *testing.T) {
	snap := buildFixture(t)

	var timeNames, dataNames []string
	for _, row := range snap.TimeMetrics {
		timeNames = append(timeNames, row.Name)
	}
	for _, row := range snap.DataMetrics {
		dataNames = append(dataNames, row.Name)
	}

	if len(dataNames) != 1 || dataNames[0] != "data_sent" {
		t.Errorf("expected data table [data_sent], got %v", dataNames)
	}
	for _, name := range timeNames {
		if name == "data_sent" {
			t.Error("data metric leaked into time table")
		}
	}

	for _, row := range snap.TimeMetrics {
		if row.Name == "http_req_duration" {
			if !row.HasData || row.Stats.Count != 3 || row.Stats.Min != 40 || row.Stats.Max != 80 {
				t.Errorf("unexpected latency stats: %+v", row.Stats)
			}
			return
		}
	}
	t.Error("http_req_duration missing from time table")
}

func TestBuildStatusLabels(t *testing.T) {
	snap := buildFixture(t)

	labels := map[string]string{}
	for _, sc := range snap.StatusCounts {
		labels[sc.Code] = sc.Label
	}
	if labels["200"] != "OK" {
		t.Errorf("expected label OK for 200, got %q", labels["200"])
	}
	if labels["404"] != "Not Found" {
		t.Errorf("expected label Not Found for 404, got %q", labels["404"])
	}
}

func TestStatusLabelUnknown(t *testing.T) {
	col := timeseries.New(timeseries.Options{RequestsMetric: "http_reqs", StatusTag: "status"})
	col.ObserveSample(stream.Sample{Metric: "http_reqs", Time: 1, Value: 1, Tags: map[string]string{"status": "banana"}})
	col.ObserveSample(stream.Sample{Metric: "http_reqs", Time: 1, Value: 1, Tags: map[string]string{"status": "999"}})
	col.Finish()

	agg := aggregate.New(defaultOptions())
	snap := report.Build(agg, col, report.BuildOptions{RunID: "x", GeneratedAt: time.Unix(0, 1)})

	for _, sc := range snap.StatusCounts {
		if sc.Label != "Unknown" {
			t.Errorf("code %q: expected label Unknown, got %q", sc.Code, sc.Label)
		}
	}
}

func TestStatusHistogramTotalMatchesRequests(t *testing.T) {
	snap := buildFixture(t)

	var total int64
	for _, sc := range snap.StatusCounts {
		total += sc.Count
	}
	if total != snap.Summary.TotalRequests {
		t.Errorf("status histogram total %d != request count %d", total, snap.Summary.TotalRequests)
	}
}

func TestStatusHistogramCountsUntaggedRequests(t *testing.T) {
	agg := aggregate.New(defaultOptions())
	col := timeseries.New(timeseries.Options{
		Success:        successByStatus,
		RequestsMetric: "http_reqs",
		StatusTag:      "status",
	})

	samples := []stream.Sample{
		{Metric: "http_reqs", Time: 1.0, Value: 1, Tags: map[string]string{"status": "200"}},
		{Metric: "http_reqs", Time: 1.5, Value: 1},
	}
	for _, s := range samples {
		agg.ObserveSample(s)
		col.ObserveSample(s)
	}
	col.Finish()

	snap := report.Build(agg, col, report.BuildOptions{RunID: "x", GeneratedAt: time.Unix(0, 1)})

	var total int64
	sentinel := false
	for _, sc := range snap.StatusCounts {
		total += sc.Count
		if sc.Code == "unknown" {
			sentinel = true
			if sc.Label != "Unknown" {
				t.Errorf("expected Unknown label for the sentinel code, got %q", sc.Label)
			}
		}
	}
	if total != snap.Summary.TotalRequests {
		t.Errorf("status histogram total %d != request count %d", total, snap.Summary.TotalRequests)
	}
	if !sentinel {
		t.Error("untagged request missing from the status histogram")
	}
}

func TestPercentileCurve(t *testing.T) {
	snap := buildFixture(t)

	curve := snap.PercentileCurve
	if len(curve) != 101 {
		t.Fatalf("expected 101 percentile points, got %d", len(curve))
	}
	if curve[0].Time != 0 || curve[0].Value != 40 {
		t.Errorf("expected p0 = 40, got %+v", curve[0])
	}
	if curve[100].Time != 100 || curve[100].Value != 80 {
		t.Errorf("expected p100 = 80, got %+v", curve[100])
	}
	for i := 1; i < len(curve); i++ {
		if curve[i].Value < curve[i-1].Value {
			t.Fatalf("curve decreases at p%d: %v < %v", i, curve[i].Value, curve[i-1].Value)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	agg := aggregate.New(defaultOptions())
	col := timeseries.New(timeseries.Options{})
	col.Finish()

	snap := report.Build(agg, col, report.BuildOptions{RunID: "empty", GeneratedAt: time.Unix(0, 1)})

	if snap.Summary.HasRequests || snap.Summary.HasLatency || snap.Summary.HasDuration {
		t.Errorf("expected all Has* guards false, got %+v", snap.Summary)
	}
	if len(snap.PercentileCurve) != 0 {
		t.Errorf("expected empty percentile curve, got %d points", len(snap.PercentileCurve))
	}
	if len(snap.StatusCounts) != 0 {
		t.Errorf("expected no status counts, got %+v", snap.StatusCounts)
	}
}

func TestBuildDefaultsRunID(t *testing.T) {
	agg := aggregate.New(defaultOptions())
	col := timeseries.New(timeseries.Options{})
	col.Finish()

	snap := report.Build(agg, col, report.BuildOptions{})
	if snap.RunID == "" {
		t.Error("expected a generated run ID")
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("expected a generation timestamp")
	}
}

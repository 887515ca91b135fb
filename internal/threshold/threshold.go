// Package threshold evaluates pass/fail assertions over a finished
// run's report snapshot, so CI pipelines can gate on analyzed results.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/burnish-dev/burnish/internal/report"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // metric name from the log, or "requests"/"failures"
	Aggregate string  // e.g., "p95", "p99", "avg", "max", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a report snapshot.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the provided snapshot.
func (e *Evaluator) Evaluate(snap report.Snapshot) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, snap))
	}
	return results
}

func (e *Evaluator) evaluateOne(t Threshold, snap report.Snapshot) Result {
	actual, err := extractMetricValue(t, snap)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
//   - "http_req_duration:p95 < 500"   (percentile of any logged metric)
//   - "http_req_duration:avg < 200"   (average of any logged metric)
//   - "requests:rate > 100"           (mean requests per second)
//   - "requests:count > 1000"         (total request count)
//   - "failures:rate < 0.01"          (failure rate as decimal)
//   - "failures:count < 10"           (failure count)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	// Pattern: metric:aggregate operator value
	pattern := regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'http_req_duration:p95 < 500')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: p50, p90, p95, p99, avg, min, max, rate, count)", aggregate)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

func isValidAggregate(aggregate string) bool {
	valid := []string{"p50", "p90", "p95", "p99", "avg", "min", "max", "rate", "count"}
	for _, v := range valid {
		if aggregate == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, snap report.Snapshot) (float64, error) {
	switch t.Metric {
	case "requests":
		return extractRequestMetric(t.Aggregate, snap)
	case "failures":
		return extractFailureMetric(t.Aggregate, snap)
	default:
		return extractRowMetric(t, snap)
	}
}

// extractRowMetric resolves an aggregate of any metric that appeared in
// the log's statistics tables.
func extractRowMetric(t Threshold, snap report.Snapshot) (float64, error) {
	row, ok := findRow(snap, t.Metric)
	if !ok {
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
	if !row.HasData {
		return 0, fmt.Errorf("metric %s has no samples", t.Metric)
	}

	switch t.Aggregate {
	case "p50":
		return row.Stats.Median, nil
	case "p90":
		return row.Stats.P90, nil
	case "p95":
		return row.Stats.P95, nil
	case "p99":
		return row.Stats.P99, nil
	case "avg":
		return row.Stats.Mean, nil
	case "min":
		return row.Stats.Min, nil
	case "max":
		return row.Stats.Max, nil
	case "count":
		return float64(row.Stats.Count), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for metric %s", t.Aggregate, t.Metric)
	}
}

func findRow(snap report.Snapshot, name string) (report.MetricRow, bool) {
	for _, row := range snap.TimeMetrics {
		if row.Name == name {
			return row, true
		}
	}
	for _, row := range snap.DataMetrics {
		if row.Name == name {
			return row, true
		}
	}
	return report.MetricRow{}, false
}

func extractFailureMetric(aggregate string, snap report.Snapshot) (float64, error) {
	switch aggregate {
	case "count":
		return float64(snap.Summary.Failures), nil
	case "rate":
		if snap.Summary.TotalRequests == 0 {
			return 0, nil
		}
		return float64(snap.Summary.Failures) / float64(snap.Summary.TotalRequests), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for failures (use 'count' or 'rate')", aggregate)
	}
}

func extractRequestMetric(aggregate string, snap report.Snapshot) (float64, error) {
	switch aggregate {
	case "count":
		return float64(snap.Summary.TotalRequests), nil
	case "rate":
		if !snap.Summary.HasDuration || snap.Summary.Duration <= 0 {
			return 0, fmt.Errorf("requests:rate needs a nonzero sample span")
		}
		return float64(snap.Summary.TotalRequests) / snap.Summary.Duration, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for requests (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Floating point equality uses a small epsilon.
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}

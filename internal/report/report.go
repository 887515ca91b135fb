package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PrintReport writes a human-readable summary of the run.
func PrintReport(w io.Writer, snap Snapshot) {
	fmt.Fprintln(w, "\n--- Load Test Report ---")
	fmt.Fprintf(w, "Run ID:            %s\n", snap.RunID)
	if snap.Summary.Source != "" {
		fmt.Fprintf(w, "Source:            %s\n", snap.Summary.Source)
	}

	if snap.Summary.HasRequests {
		fmt.Fprintf(w, "Total Requests:    %d\n", snap.Summary.TotalRequests)
		fmt.Fprintf(w, "Successful:        %d (%.1f%%)\n", snap.Summary.Successes, snap.Summary.SuccessRate)
		fmt.Fprintf(w, "Failed:            %d\n", snap.Summary.Failures)
	} else {
		fmt.Fprintln(w, "Total Requests:    no data")
	}
	if snap.Summary.HasDuration {
		fmt.Fprintf(w, "Duration:          %.2fs\n", snap.Summary.Duration)
		if snap.Summary.HasRequests && snap.Summary.Duration > 0 {
			fmt.Fprintf(w, "Requests/sec:      %.2f\n", float64(snap.Summary.TotalRequests)/snap.Summary.Duration)
		}
	}
	if snap.Summary.HasLatency {
		fmt.Fprintf(w, "Avg Latency:       %.2f\n", snap.Summary.AvgLatency)
	}
	if snap.Summary.LinesSkipped > 0 {
		fmt.Fprintf(w, "Skipped Lines:     %d of %d\n", snap.Summary.LinesSkipped, snap.Summary.LinesRead)
	}

	if len(snap.TimeMetrics) > 0 {
		fmt.Fprintln(w, "\nMetrics:")
		for _, row := range snap.TimeMetrics {
			printMetricRow(w, row)
		}
	}
	if len(snap.DataMetrics) > 0 {
		fmt.Fprintln(w, "\nData Transfer:")
		for _, row := range snap.DataMetrics {
			if !row.HasData {
				fmt.Fprintf(w, "  - %s: no data\n", row.Name)
				continue
			}
			fmt.Fprintf(
				w,
				"  - %s: min=%.2f, max=%.2f, mean=%.2f, total=%.0f\n",
				row.Name, row.Stats.Min, row.Stats.Max, row.Stats.Mean, row.Stats.Sum,
			)
		}
	}

	if len(snap.StatusCounts) > 0 {
		fmt.Fprintln(w, "\nStatus Codes:")
		for _, sc := range snap.StatusCounts {
			fmt.Fprintf(w, "  %s %s: %d\n", sc.Code, sc.Label, sc.Count)
		}
	}
}

func printMetricRow(w io.Writer, row MetricRow) {
	if !row.HasData {
		fmt.Fprintf(w, "  - %s: no data\n", row.Name)
		return
	}
	fmt.Fprintf(
		w,
		"  - %s: min=%.2f, max=%.2f, mean=%.2f, med=%.2f, p90=%.2f, p95=%.2f, p99=%.2f (n=%d)\n",
		row.Name,
		row.Stats.Min,
		row.Stats.Max,
		row.Stats.Mean,
		row.Stats.Median,
		row.Stats.P90,
		row.Stats.P95,
		row.Stats.P99,
		row.Stats.Count,
	)
}

// PrintJSONReport writes the full snapshot as indented JSON.
func PrintJSONReport(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// PrintYAMLReport writes the full snapshot as YAML.
func PrintYAMLReport(w io.Writer, snap Snapshot) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(snap)
}

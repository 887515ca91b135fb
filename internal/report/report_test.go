package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/burnish-dev/burnish/internal/aggregate"
	"github.com/burnish-dev/burnish/internal/report"
	"github.com/burnish-dev/burnish/internal/timeseries"
)

func TestPrintReport(t *testing.T) {
	snap := buildFixture(t)

	var buf bytes.Buffer
	report.PrintReport(&buf, snap)
	out := buf.String()

	for _, want := range []string{
		"Load Test Report",
		"Run ID:            01TESTRUN",
		"Source:            run.log",
		"Total Requests:    4",
		"Successful:        3 (75.0%)",
		"Failed:            1",
		"http_req_duration",
		"Data Transfer:",
		"data_sent",
		"Status Codes:",
		"200 OK: 3",
		"404 Not Found: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportNoData(t *testing.T) {
	agg := aggregate.New(defaultOptions())
	col := timeseries.New(timeseries.Options{})
	col.Finish()
	snap := report.Build(agg, col, report.BuildOptions{RunID: "empty", GeneratedAt: time.Unix(0, 1)})

	var buf bytes.Buffer
	report.PrintReport(&buf, snap)
	out := buf.String()

	if !strings.Contains(out, "Total Requests:    no data") {
		t.Errorf("expected explicit no-data line:\n%s", out)
	}
	for _, absent := range []string{"Duration:", "Avg Latency:", "Status Codes:"} {
		if strings.Contains(out, absent) {
			t.Errorf("expected %q to be omitted:\n%s", absent, out)
		}
	}
}

func TestPrintReportIdempotent(t *testing.T) {
	snap := buildFixture(t)

	var first, second bytes.Buffer
	report.PrintReport(&first, snap)
	report.PrintReport(&second, snap)

	if first.String() != second.String() {
		t.Error("rendering the same snapshot twice produced different output")
	}
}

func TestPrintJSONReportRoundTrip(t *testing.T) {
	snap := buildFixture(t)

	var buf bytes.Buffer
	if err := report.PrintJSONReport(&buf, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["run_id"] != "01TESTRUN" {
		t.Errorf("expected run_id 01TESTRUN, got %v", decoded["run_id"])
	}
	summary, ok := decoded["summary"].(map[string]any)
	if !ok {
		t.Fatalf("missing summary block: %v", decoded)
	}
	if summary["total_requests"] != float64(4) {
		t.Errorf("expected total_requests 4, got %v", summary["total_requests"])
	}
}

func TestPrintYAMLReport(t *testing.T) {
	snap := buildFixture(t)

	var buf bytes.Buffer
	if err := report.PrintYAMLReport(&buf, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded["run_id"] != "01TESTRUN" {
		t.Errorf("expected run_id 01TESTRUN, got %v", decoded["run_id"])
	}
}

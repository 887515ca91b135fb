package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.log")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Format != FormatText {
		t.Errorf("expected default format text, got %q", cfg.Format)
	}
	if cfg.RequestsMetric != "http_reqs" || cfg.LatencyMetric != "http_req_duration" || cfg.VUMetric != "vus" {
		t.Errorf("unexpected default metric names: %+v", cfg)
	}
	if cfg.SuccessTag != "status" || len(cfg.SuccessValues) != 1 || cfg.SuccessValues[0] != "200" {
		t.Errorf("unexpected default success policy: tag=%q values=%v", cfg.SuccessTag, cfg.SuccessValues)
	}
	if cfg.BucketWidth != 100 {
		t.Errorf("expected default bucket width 100, got %g", cfg.BucketWidth)
	}
	if cfg.Tracing.Protocol != "grpc" || cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("unexpected default tracing config: %+v", cfg.Tracing)
	}
}

func TestValidate(t *testing.T) {
	logPath := writeTempLog(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(c *Config) {}},
		{name: "missing input", mutate: func(c *Config) { c.InputPath = "" }, wantErr: true},
		{name: "nonexistent input", mutate: func(c *Config) { c.InputPath = "/nonexistent/run.log" }, wantErr: true},
		{name: "json format", mutate: func(c *Config) { c.Format = FormatJSON }},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: true},
		{name: "empty success tag", mutate: func(c *Config) { c.SuccessTag = "" }, wantErr: true},
		{name: "no success values", mutate: func(c *Config) { c.SuccessValues = nil }, wantErr: true},
		{name: "zero bucket width", mutate: func(c *Config) { c.BucketWidth = 0 }, wantErr: true},
		{name: "empty latency metric", mutate: func(c *Config) { c.LatencyMetric = "" }, wantErr: true},
		{name: "sample rate out of range", mutate: func(c *Config) { c.Tracing.SampleRate = 1.5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.InputPath = logPath
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFiltered(t *testing.T) {
	cfg := Default()
	if got := cfg.Filtered(); len(got) != 1 || got[0] != "http_req_duration" {
		t.Errorf("expected filtered set to default to the latency metric, got %v", got)
	}

	cfg.FilteredMetrics = []string{"http_req_duration", "http_req_waiting"}
	if got := cfg.Filtered(); len(got) != 2 {
		t.Errorf("expected configured filtered set, got %v", got)
	}
}

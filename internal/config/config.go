package config

import (
	"fmt"
	"os"
)

// Format selects the summary report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Config holds every setting for one analysis run.
type Config struct {
	InputPath  string `mapstructure:"input"`
	Format     Format `mapstructure:"format"`
	HTMLOutput string `mapstructure:"html_output"`
	HDROutput  string `mapstructure:"hdr_output"`
	Dashboard  bool   `mapstructure:"dashboard"`
	Quiet      bool   `mapstructure:"quiet"`

	// Success policy: a sample counts as successful when its SuccessTag
	// tag carries one of SuccessValues. FilteredMetrics lists the
	// latency-class metrics whose statistics only include successful
	// samples.
	SuccessTag      string   `mapstructure:"success_tag"`
	SuccessValues   []string `mapstructure:"success_values"`
	FilteredMetrics []string `mapstructure:"filtered_metrics"`

	// Metric names, matching the generator's conventions.
	RequestsMetric     string `mapstructure:"requests_metric"`
	LatencyMetric      string `mapstructure:"latency_metric"`
	VUMetric           string `mapstructure:"vu_metric"`
	DataSentMetric     string `mapstructure:"data_sent_metric"`
	DataReceivedMetric string `mapstructure:"data_received_metric"`

	// BucketWidth is the latency histogram bucket width, in the log's
	// time unit.
	BucketWidth float64 `mapstructure:"bucket_width"`

	Thresholds []string      `mapstructure:"thresholds"`
	Tracing    TracingConfig `mapstructure:"tracing"`

	ConfigFile string `mapstructure:"-"`
}

// TracingConfig configures optional OTLP span export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Default returns a Config preloaded with the conventional metric names
// and success policy of the supported generator output.
func Default() *Config {
	return &Config{
		Format:             FormatText,
		SuccessTag:         "status",
		SuccessValues:      []string{"200"},
		RequestsMetric:     "http_reqs",
		LatencyMetric:      "http_req_duration",
		VUMetric:           "vus",
		DataSentMetric:     "data_sent",
		DataReceivedMetric: "data_received",
		BucketWidth:        100,
		Tracing:            TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input metrics log path is required")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("input metrics log: %w", err)
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q (use text, json, or yaml)", c.Format)
	}

	if c.SuccessTag == "" {
		return fmt.Errorf("success_tag must not be empty")
	}
	if len(c.SuccessValues) == 0 {
		return fmt.Errorf("success_values must list at least one accepted value")
	}
	if c.BucketWidth <= 0 {
		return fmt.Errorf("bucket_width must be positive, got %g", c.BucketWidth)
	}
	if c.RequestsMetric == "" || c.LatencyMetric == "" {
		return fmt.Errorf("requests_metric and latency_metric must not be empty")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate)
	}

	return nil
}

// Filtered returns the latency-class metric set, defaulting to the
// latency metric when not configured.
func (c *Config) Filtered() []string {
	if len(c.FilteredMetrics) > 0 {
		return c.FilteredMetrics
	}
	return []string{c.LatencyMetric}
}

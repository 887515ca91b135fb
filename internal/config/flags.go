package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "burnish [flags] <metrics-log>",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Input and outputs
	flags.StringP("input", "i", "", "Path to the newline-delimited JSON metrics log")
	flags.StringP("format", "f", string(FormatText), "Summary format: text, json, or yaml")
	flags.StringP("html-output", "o", "", "Generate HTML report to the specified file path")
	flags.String("hdr-output", "", "Write an HDR percentile-distribution dump to the specified file path")
	flags.Bool("dashboard", false, "Show the finished run in a terminal dashboard")
	flags.BoolP("quiet", "q", false, "Suppress per-line parse warnings")

	// Success policy
	flags.String("success-tag", "status", "Tag key that carries the outcome of a request")
	flags.StringSlice("success-value", []string{"200"}, "Tag value counting as a successful outcome (repeatable)")
	flags.StringSlice("filtered-metric", nil, "Metric whose statistics only include successful samples (repeatable; defaults to the latency metric)")

	// Metric naming
	flags.String("requests-metric", "http_reqs", "Counter metric incremented once per request")
	flags.String("latency-metric", "http_req_duration", "Trend metric carrying per-request round-trip time")
	flags.String("vu-metric", "vus", "Gauge metric tracking concurrent virtual users")
	flags.String("data-sent-metric", "data_sent", "Counter metric accumulating bytes sent")
	flags.String("data-received-metric", "data_received", "Counter metric accumulating bytes received")

	// Charting
	flags.Float64("bucket-width", 100, "Latency histogram bucket width, in the log's time unit")

	// Thresholds
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g., 'http_req_duration:p95 < 500')")

	// Tracing
	flags.Bool("tracing", false, "Export OTLP spans for the analysis stages")
	flags.String("tracing-endpoint", "", "OTLP collector endpoint")
	flags.String("tracing-protocol", "grpc", "OTLP transport: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Skip TLS when exporting spans")
	flags.Float64("tracing-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")
	flags.String("tracing-service-name", "burnish", "Service name attached to exported spans")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

// displayHelp prints usage information to stdout.
func displayHelp(cmd *cobra.Command) {
	fmt.Fprintln(cmd.OutOrStdout(), "burnish - load-test metrics log analyzer and report builder")
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Usage:")
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", cmd.Use)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Flags:")
	fmt.Fprint(cmd.OutOrStdout(), cmd.Flags().FlagUsages())
}

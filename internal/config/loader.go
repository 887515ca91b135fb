package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce
// a Config. Flag values override config file settings; a trailing
// positional argument names the input log when --input is not given.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if cfg.InputPath == "" {
		if rest := flagSet.Args(); len(rest) > 0 {
			cfg.InputPath = strings.TrimSpace(rest[0])
		}
	}
	cfg.InputPath = strings.TrimSpace(cfg.InputPath)
	cfg.Format = Format(strings.ToLower(string(cfg.Format)))

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	stringSettings := []struct {
		key string
		dst *string
	}{
		{"input", &cfg.InputPath},
		{"html_output", &cfg.HTMLOutput},
		{"hdr_output", &cfg.HDROutput},
		{"success_tag", &cfg.SuccessTag},
		{"requests_metric", &cfg.RequestsMetric},
		{"latency_metric", &cfg.LatencyMetric},
		{"vu_metric", &cfg.VUMetric},
		{"data_sent_metric", &cfg.DataSentMetric},
		{"data_received_metric", &cfg.DataReceivedMetric},
	}
	for _, s := range stringSettings {
		raw, ok := lookupSetting(settings, s.key)
		if !ok {
			continue
		}
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		if val != "" {
			*s.dst = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if val != "" {
			cfg.Format = Format(val)
		}
	}

	sliceSettings := []struct {
		key string
		dst *[]string
	}{
		{"success_values", &cfg.SuccessValues},
		{"filtered_metrics", &cfg.FilteredMetrics},
		{"thresholds", &cfg.Thresholds},
	}
	for _, s := range sliceSettings {
		raw, ok := lookupSetting(settings, s.key)
		if !ok {
			continue
		}
		vals, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		if len(vals) > 0 {
			*s.dst = vals
		}
	}

	boolSettings := []struct {
		key string
		dst *bool
	}{
		{"dashboard", &cfg.Dashboard},
		{"quiet", &cfg.Quiet},
	}
	for _, s := range boolSettings {
		raw, ok := lookupSetting(settings, s.key)
		if !ok {
			continue
		}
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		*s.dst = val
	}

	if raw, ok := lookupSetting(settings, "bucket_width"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("bucket_width: %w", err)
		}
		if val != 0 {
			cfg.BucketWidth = val
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return err
		}
	}

	return nil
}

func applyTracingSettings(tc *TracingConfig, raw interface{}) error {
	block, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("tracing: expected a settings block, got %T", raw)
	}

	if v, ok := lookupSetting(block, "enabled"); ok {
		b, err := asBool(v)
		if err != nil {
			return fmt.Errorf("tracing.enabled: %w", err)
		}
		tc.Enabled = b
	}
	if v, ok := lookupSetting(block, "endpoint"); ok {
		s, err := asString(v)
		if err != nil {
			return fmt.Errorf("tracing.endpoint: %w", err)
		}
		tc.Endpoint = strings.TrimSpace(s)
	}
	if v, ok := lookupSetting(block, "protocol"); ok {
		s, err := asString(v)
		if err != nil {
			return fmt.Errorf("tracing.protocol: %w", err)
		}
		if s != "" {
			tc.Protocol = strings.ToLower(s)
		}
	}
	if v, ok := lookupSetting(block, "insecure"); ok {
		b, err := asBool(v)
		if err != nil {
			return fmt.Errorf("tracing.insecure: %w", err)
		}
		tc.Insecure = b
	}
	if v, ok := lookupSetting(block, "service_name"); ok {
		s, err := asString(v)
		if err != nil {
			return fmt.Errorf("tracing.service_name: %w", err)
		}
		if s != "" {
			tc.ServiceName = s
		}
	}
	if v, ok := lookupSetting(block, "sample_rate"); ok {
		f, err := asFloat64(v)
		if err != nil {
			return fmt.Errorf("tracing.sample_rate: %w", err)
		}
		tc.SampleRate = f
	}

	return nil
}

// applyFlagOverrides applies explicitly set command-line flags over the
// file-derived configuration.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error

	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"input", &cfg.InputPath},
		{"html-output", &cfg.HTMLOutput},
		{"hdr-output", &cfg.HDROutput},
		{"success-tag", &cfg.SuccessTag},
		{"requests-metric", &cfg.RequestsMetric},
		{"latency-metric", &cfg.LatencyMetric},
		{"vu-metric", &cfg.VUMetric},
		{"data-sent-metric", &cfg.DataSentMetric},
		{"data-received-metric", &cfg.DataReceivedMetric},
		{"tracing-endpoint", &cfg.Tracing.Endpoint},
		{"tracing-protocol", &cfg.Tracing.Protocol},
		{"tracing-service-name", &cfg.Tracing.ServiceName},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetString(f.name); err != nil {
			return err
		}
	}

	if flags.Changed("format") {
		val, err := flags.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = Format(val)
	}

	sliceFlags := []struct {
		name string
		dst  *[]string
	}{
		{"success-value", &cfg.SuccessValues},
		{"filtered-metric", &cfg.FilteredMetrics},
		{"threshold", &cfg.Thresholds},
	}
	for _, f := range sliceFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetStringSlice(f.name); err != nil {
			return err
		}
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"dashboard", &cfg.Dashboard},
		{"quiet", &cfg.Quiet},
		{"tracing", &cfg.Tracing.Enabled},
		{"tracing-insecure", &cfg.Tracing.Insecure},
	}
	for _, f := range boolFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetBool(f.name); err != nil {
			return err
		}
	}

	floatFlags := []struct {
		name string
		dst  *float64
	}{
		{"bucket-width", &cfg.BucketWidth},
		{"tracing-sample-rate", &cfg.Tracing.SampleRate},
	}
	for _, f := range floatFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetFloat64(f.name); err != nil {
			return err
		}
	}

	return nil
}

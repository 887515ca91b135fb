package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/burnish-dev/burnish/internal/aggregate"
	"github.com/burnish-dev/burnish/internal/config"
	"github.com/burnish-dev/burnish/internal/dashboard"
	"github.com/burnish-dev/burnish/internal/report"
	"github.com/burnish-dev/burnish/internal/stream"
	"github.com/burnish-dev/burnish/internal/threshold"
	"github.com/burnish-dev/burnish/internal/timeseries"
	"github.com/burnish-dev/burnish/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Quiet)
	defer logger.Sync()

	ctx := context.Background()
	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	snap, agg, err := analyze(ctx, cfg, logger, provider)
	if err != nil {
		return err
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(snap)

	if err := render(ctx, cfg, provider, snap, agg, results); err != nil {
		return err
	}

	if cfg.Dashboard {
		dash, err := dashboard.New(snap)
		if err != nil {
			return err
		}
		if err := dash.Run(); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	return nil
}

// analyze runs the single parse pass: log lines feed the aggregator and
// the timeseries collector, and the finished state is frozen into a
// report snapshot.
func analyze(ctx context.Context, cfg *config.Config, logger *zap.Logger, provider *tracing.Provider) (report.Snapshot, *aggregate.Aggregator, error) {
	success := aggregate.MatchTag(cfg.SuccessTag, cfg.SuccessValues...)

	agg := aggregate.New(aggregate.Options{
		Success:            success,
		Filtered:           cfg.Filtered(),
		RequestsMetric:     cfg.RequestsMetric,
		DataSentMetric:     cfg.DataSentMetric,
		DataReceivedMetric: cfg.DataReceivedMetric,
	})
	col := timeseries.New(timeseries.Options{
		Success:        success,
		VUMetric:       cfg.VUMetric,
		LatencyMetric:  cfg.LatencyMetric,
		RequestsMetric: cfg.RequestsMetric,
		StatusTag:      cfg.SuccessTag,
		BucketWidth:    cfg.BucketWidth,
	})

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return report.Snapshot{}, nil, fmt.Errorf("opening metrics log: %w", err)
	}
	defer f.Close()

	_, span := tracing.StartStageSpan(ctx, provider.Tracer(), "parse")
	stats, err := stream.NewReader(logger, agg, col).Read(f)
	tracing.EndSpan(span, err)
	if err != nil {
		return report.Snapshot{}, nil, err
	}
	col.Finish()

	if stats.Samples == 0 {
		logger.Warn("no samples found in input", zap.String("path", cfg.InputPath))
	}

	_, span = tracing.StartStageSpan(ctx, provider.Tracer(), "aggregate")
	snap := report.Build(agg, col, report.BuildOptions{
		Source:        cfg.InputPath,
		LatencyMetric: cfg.LatencyMetric,
		ReadStats:     stats,
	})
	tracing.EndSpan(span, nil)

	return snap, agg, nil
}

// render emits every requested artifact for the snapshot.
func render(ctx context.Context, cfg *config.Config, provider *tracing.Provider, snap report.Snapshot, agg *aggregate.Aggregator, results []threshold.Result) error {
	_, span := tracing.StartStageSpan(ctx, provider.Tracer(), "render")
	err := renderAll(cfg, snap, agg, results)
	tracing.EndSpan(span, err)
	return err
}

func renderAll(cfg *config.Config, snap report.Snapshot, agg *aggregate.Aggregator, results []threshold.Result) error {
	switch cfg.Format {
	case config.FormatJSON:
		if err := report.PrintJSONReport(os.Stdout, snap); err != nil {
			return err
		}
	case config.FormatYAML:
		if err := report.PrintYAMLReport(os.Stdout, snap); err != nil {
			return err
		}
	default:
		report.PrintReport(os.Stdout, snap)
		if len(results) > 0 {
			fmt.Fprintln(os.Stdout, "\nThresholds:")
			for _, r := range results {
				fmt.Fprintf(os.Stdout, "  %s\n", r.Message)
			}
		}
	}

	if cfg.HTMLOutput != "" {
		err := report.WriteArtifact(cfg.HTMLOutput, func(f *os.File) error {
			return report.GenerateHTMLReport(f, snap)
		})
		if err != nil {
			return err
		}
	}

	if cfg.HDROutput != "" {
		err := report.WriteArtifact(cfg.HDROutput, func(f *os.File) error {
			return agg.DumpHDR(f)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func newLogger(quiet bool) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if quiet {
		level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

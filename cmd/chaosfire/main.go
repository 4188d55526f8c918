package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/chaosfire/internal/config"
	"github.com/torosent/chaosfire/internal/experiment"
	"github.com/torosent/chaosfire/internal/httpclient"
	"github.com/torosent/chaosfire/internal/logging"
	"github.com/torosent/chaosfire/internal/metrics"
	"github.com/torosent/chaosfire/internal/output"
	"github.com/torosent/chaosfire/internal/runner"
	"github.com/torosent/chaosfire/internal/threshold"
	"github.com/torosent/chaosfire/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, logging.Format(cfg.LogFormat))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector()
	var recorder metrics.Recorder = collector
	if cfg.MetricsAddr != "" {
		exporter := metrics.NewExporter()
		srv := exporter.Serve(cfg.MetricsAddr, func(err error) {
			logger.Error("metrics server failed", zap.Error(err))
		})
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
		recorder = metrics.Tee(collector, exporter)
	}

	client := httpclient.NewClient(cfg.Timeout)
	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}
	strategies, err := experiment.Build(cfg.Injections, experiment.Deps{
		Recorder: recorder,
		Logger:   logger,
		Client:   client,
		Seed:     cfg.Seed,
	})
	if err != nil {
		return err
	}
	requester, err := experiment.NewRequester(client, builder, strategies,
		experiment.WithRecorder(recorder),
		experiment.WithTracing(tp),
	)
	if err != nil {
		return err
	}

	var wrapped runner.Requester = requester
	if cfg.LogErrors {
		wrapped = runner.WithLogging(wrapped, logging.NewFailureLogger(logger))
	}

	r := runner.New(runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalRequests: cfg.Total,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  toRunnerArrivalModel(cfg.Arrival.Model),
		RandomSeed:    cfg.Seed,
		Requester:     wrapped,
	})

	logger.Info("starting experiment",
		zap.String("target", cfg.TargetURL),
		zap.String("method", builder.Method()),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Int("injections", len(strategies)),
	)

	var progress *output.ProgressReporter
	if !cfg.JSONOutput {
		progress = output.NewProgressReporter(collector, progressInterval, stdout)
		progress.Start()
	}

	collector.Start()
	result := r.Run(ctx)
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(stdout)
	}

	stats := collector.Stats(result.Duration)
	results := threshold.NewEvaluator(thresholds).Evaluate(stats)

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, stats, results); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, stats)
		output.PrintThresholdResults(stdout, results)
	}

	logger.Debug("experiment finished",
		zap.Int64("requests", result.Total),
		zap.Int64("errors", result.Errors),
		zap.Int64("injected", stats.InjectedTotal),
	)

	if !threshold.AllPassed(results) {
		failed := 0
		for _, res := range results {
			if !res.Pass {
				failed++
			}
		}
		return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	return nil
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	if model == config.ArrivalModelPoisson {
		return runner.ArrivalModelPoisson
	}
	return runner.ArrivalModelUniform
}

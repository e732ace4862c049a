// Command renderd serves the render job API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"splitrender/api"
	"splitrender/autoconfig"
	"splitrender/benchmark"
	"splitrender/compare"
	"splitrender/concatenator"
	"splitrender/config"
	"splitrender/ffmpeg"
	"splitrender/ffprobe"
	"splitrender/internal/logging"
	"splitrender/jobs"
	"splitrender/metrics"
	"splitrender/pipeline"
)

func main() {
	cfg, err := config.LoadServerConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel(), Format: cfg.Log.Format})

	runner := ffmpeg.ExecRunner{}
	prober := ffprobe.NewProber(cfg.Tools.FFprobe, runner)

	mergeOpts := cfg.MergeOptions()
	if cfg.Merge.ValidateSignatures {
		mergeOpts.Signature = prober.StreamSignature
	}
	engine := pipeline.NewEngine(
		pipeline.NewFFmpegWorker(runner, cfg.EncodeSettings()),
		concatenator.NewConcatenator(runner, mergeOpts, logger),
		logger,
	)

	registry := autoconfig.NewRegistry()
	if cfg.Adaptive.ContentAware {
		content := autoconfig.NewContentStrategy(runner, cfg.Tools.FFmpeg, cfg.Adaptive.MotionSampleSeconds, logger)
		if err := registry.Register(autoconfig.VariantContentAware, content); err != nil {
			logger.Fatal().Err(err).Msg("failed to register content-aware configurator")
		}
	}

	mgr, err := jobs.NewManager(jobs.Deps{
		Prober:        prober,
		Engine:        engine,
		Baseline:      benchmark.NewBaseline(runner, cfg.EncodeSettings(), logger),
		Comparer:      compare.NewComparer(runner, cfg.Tools.FFmpeg, logger),
		Configurators: registry,
		Metrics:       metrics.NewCollector(),
		Logger:        logger,
	}, jobs.Options{
		OutputDir:            cfg.Server.OutputDir,
		TempDir:              cfg.Server.TempDir,
		MaxConcurrentJobs:    cfg.Server.MaxConcurrentJobs,
		DefaultWorkers:       runtime.NumCPU(),
		DefaultFilter:        cfg.Filter,
		DefaultVariant:       cfg.Adaptive.Variant,
		SerialSampleSeconds:  cfg.Server.SerialSampleSeconds,
		CompareSampleSeconds: cfg.Server.CompareSampleSeconds,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create job manager")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(mgr, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Int("max_concurrent_jobs", cfg.Server.MaxConcurrentJobs).
			Strs("variants", variantNames(registry)).
			Msg("renderd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func variantNames(r *autoconfig.Registry) []string {
	var names []string
	for _, v := range r.Available() {
		names = append(names, string(v))
	}
	return names
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"splitrender/autoconfig"
	"splitrender/benchmark"
	"splitrender/concatenator"
	"splitrender/config"
	"splitrender/ffmpeg"
	"splitrender/ffprobe"
	"splitrender/internal/fsutil"
	"splitrender/internal/logging"
	"splitrender/internal/timeutil"
	"splitrender/models"
	"splitrender/orchestrator"
	"splitrender/pipeline"
)

func main() {
	// Step 1: Load configuration (CLI flags > config file > defaults)
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel(), Format: cfg.Log.Format})
	if cfg.Verbose {
		cfg.PrintConfig()
	}

	// Step 2: Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\n⚠️  Interrupt received, cleaning up...")
		cancel()
	}()

	// Step 3: Run the benchmark pipeline
	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "\n❌ Pipeline error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Rendering completed successfully!")
}

// run executes probe, optional adaptive configuration, optional serial
// baseline, the parallel pass (or sweep) and the report.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	startTime := time.Now()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 SPLITRENDER - PIPELINE START                   ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Input:  %s\n", cfg.Input)
	fmt.Printf("Output: %s\n", cfg.Output)
	fmt.Println()

	workDir, cleanup, err := makeWorkDir(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := ffmpeg.ExecRunner{}
	prober := ffprobe.NewProber(cfg.Tools.FFprobe, runner)

	// PHASE 1: Media Analysis
	printPhase("📊 Phase 1: Media Analysis")
	meta, err := prober.Probe(ctx, cfg.Input)
	if err != nil {
		return fmt.Errorf("media analysis failed: %w", err)
	}
	fmt.Printf("  Duration:       %s (%.2f seconds)\n", timeutil.FormatSeconds(meta.Duration), meta.Duration)
	fmt.Printf("  Resolution:     %s\n", meta.Resolution())
	fmt.Printf("  Frame rate:     %.2f fps (%d frames)\n", meta.FrameRate, meta.FrameCount())
	fmt.Printf("  Codec:          %s\n", meta.Codec)
	fmt.Println()

	workers, filter := cfg.Workers, cfg.Filter
	if cfg.Smart {
		printPhase("🧠 Adaptive Configuration")
		decision, err := configure(ctx, cfg, meta, runner, logger)
		if err != nil {
			return err
		}
		workers, filter = decision.Workers, decision.Filter
		fmt.Printf("  Variant:        %s\n", decision.Variant)
		fmt.Printf("  Class:          %s\n", decision.ResolutionClass)
		if decision.MotionScore != nil {
			fmt.Printf("  Motion (YDIF):  %.2f\n", *decision.MotionScore)
		}
		fmt.Printf("  Workers:        %d\n", workers)
		fmt.Printf("  Filter:         %s\n", filter)
		fmt.Printf("  Reason:         %s\n", decision.Reason)
		fmt.Println()
	}

	settings := cfg.EncodeSettings()

	// PHASE 2: Serial baseline
	var serial *float64
	if !cfg.SkipSerial {
		printPhase("🐢 Phase 2: Serial Baseline")
		baseline := benchmark.NewBaseline(runner, settings, logger)
		secs, err := baseline.SerialBaseline(ctx, cfg.Input, filepath.Join(workDir, "serial_output.mp4"), filter)
		if err != nil {
			return err
		}
		serial = &secs
		fmt.Printf("  ✓ Serial encode took %.2fs\n\n", secs)
	}

	engine := newEngine(cfg, runner, prober, logger)

	// PHASE 3: Parallel rendering
	var entries []benchmark.Entry
	if cfg.Sweep {
		printPhase(fmt.Sprintf("⚡ Phase 3: Scaling Sweep (up to %d workers)", workers))
		entries = benchmark.Sweep(ctx, engine, benchmark.SweepRequest{
			Input:    cfg.Input,
			WorkDir:  workDir,
			Duration: meta.Duration,
			Filter:   filter,
		}, workers, logger)

		best := entries[len(entries)-1]
		if !best.Success {
			return fmt.Errorf("sweep pass with %d workers failed: %s", best.Workers, best.Error)
		}
		if err := fsutil.CopyFile(best.Output, cfg.Output); err != nil {
			return fmt.Errorf("failed to copy sweep output: %w", err)
		}
	} else {
		printPhase(fmt.Sprintf("⚡ Phase 3: Parallel Render (%d workers)", workers))
		res, err := engine.Run(ctx, pipeline.Request{
			Input:    cfg.Input,
			Output:   cfg.Output,
			WorkDir:  filepath.Join(workDir, "segments"),
			Duration: meta.Duration,
			Workers:  workers,
			Filter:   filter,
		}, pipeline.Hooks{OnProgress: progressLine(time.Now())})
		if err != nil {
			return err
		}
		fmt.Printf("\r  ✓ Rendered %d segments in %.2fs (merge: %s)\n",
			len(res.Segments), res.Seconds, res.Strategy)

		seconds := res.Seconds
		entries = []benchmark.Entry{{
			Workers:        res.Workers,
			Seconds:        &seconds,
			Success:        true,
			SegmentSeconds: res.SegmentSeconds(),
			Output:         cfg.Output,
		}}
	}
	fmt.Println()

	// PHASE 4: Report
	report := benchmark.NewReport(&meta, serial, entries)
	printResults(report, entries)

	if cfg.Export != "" {
		if err := benchmark.Export(cfg.Export, report); err != nil {
			return err
		}
		fmt.Printf("\n  📁 Benchmark data written to %s\n", cfg.Export)
	}

	printSummary(cfg.Output, time.Since(startTime))
	return nil
}

// makeWorkDir creates a per-run directory under cfg.TempDir. The returned
// cleanup removes it unless --keep-temp was given.
func makeWorkDir(cfg *config.Config) (string, func(), error) {
	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	dir, err := os.MkdirTemp(cfg.TempDir, "run-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	cleanup := func() {
		if cfg.KeepTemp {
			fmt.Printf("  Segment files kept in %s\n", dir)
			return
		}
		os.RemoveAll(dir)
		// Only succeeds when nothing else lives there
		os.Remove(cfg.TempDir)
	}
	return dir, cleanup, nil
}

func configure(ctx context.Context, cfg *config.Config, meta models.MediaMetadata, runner ffmpeg.Runner, logger zerolog.Logger) (autoconfig.Decision, error) {
	registry := autoconfig.NewRegistry()
	if cfg.Adaptive.ContentAware {
		strategy := autoconfig.NewContentStrategy(runner, cfg.Tools.FFmpeg, cfg.Adaptive.MotionSampleSeconds, logger)
		if err := registry.Register(autoconfig.VariantContentAware, strategy); err != nil {
			return autoconfig.Decision{}, err
		}
	}

	_, strategy, err := registry.Select(cfg.Adaptive.Variant)
	if err != nil {
		return autoconfig.Decision{}, err
	}
	decision, err := strategy.Configure(ctx, meta, cfg.Workers, cfg.Input)
	if err != nil {
		return autoconfig.Decision{}, fmt.Errorf("adaptive configuration failed: %w", err)
	}
	return decision, nil
}

func newEngine(cfg *config.Config, runner ffmpeg.Runner, prober *ffprobe.Prober, logger zerolog.Logger) *pipeline.Engine {
	opts := cfg.MergeOptions()
	if cfg.Merge.ValidateSignatures {
		opts.Signature = prober.StreamSignature
	}
	worker := pipeline.NewFFmpegWorker(runner, cfg.EncodeSettings())
	merger := concatenator.NewConcatenator(runner, opts, logger)
	return pipeline.NewEngine(worker, merger, logger)
}

// progressLine renders an ffmpeg-style status line as segments finish.
func progressLine(started time.Time) orchestrator.ProgressFunc {
	return func(done, total int, res models.SegmentResult) {
		elapsed := time.Since(started).Seconds()
		rate := float64(done) / elapsed
		eta := 0.0
		if rate > 0 {
			eta = float64(total-done) / rate
		}
		fmt.Printf("\r  segment=%d/%d last=%d (%.1fs) elapsed=%.1fs eta=%.0fs",
			done, total, res.ID, res.Elapsed, elapsed, eta)
		os.Stdout.Sync()
	}
}

func printPhase(title string) {
	fmt.Println(title)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// printResults prints the workers/time/speedup/efficiency table and, when a
// serial time exists, the Amdahl block.
func printResults(report benchmark.Report, entries []benchmark.Entry) {
	printPhase("📈 Results")
	fmt.Printf("  %-8s %10s %9s %11s\n", "Workers", "Time", "Speedup", "Efficiency")
	if report.SerialSeconds != nil {
		fmt.Printf("  %-8s %9.2fs %8.2fx %10s\n", "serial", *report.SerialSeconds, 1.0, "-")
	}
	for _, e := range entries {
		if !e.Success || e.Seconds == nil {
			fmt.Printf("  %-8d %10s   %s\n", e.Workers, "FAILED", e.Error)
			continue
		}
		speedup, efficiency := "-", "-"
		if report.SerialSeconds != nil {
			s := *report.SerialSeconds / *e.Seconds
			speedup = fmt.Sprintf("%.2fx", s)
			efficiency = fmt.Sprintf("%.1f%%", 100*s/float64(e.Workers))
		}
		fmt.Printf("  %-8d %9.2fs %9s %11s\n", e.Workers, *e.Seconds, speedup, efficiency)
	}

	if a := report.Amdahl; a != nil {
		fmt.Println("\n  Amdahl's law:")
		fmt.Printf("    Speedup at %d workers:  %.2fx\n", a.Workers, a.Speedup)
		if a.Solved {
			fmt.Printf("    Serial fraction:        %.1f%%\n", 100*a.SerialFraction)
		} else {
			fmt.Println("    Serial fraction:        n/a (speedup at or above worker count)")
		}
		fmt.Printf("    Theoretical max:        %.2fx\n", a.TheoreticalMax)
		fmt.Printf("    Of theoretical:         %.1f%%\n", 100*a.OfTheoretical)
	}
}

func printSummary(output string, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      PIPELINE COMPLETE                         ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Output:     %s (%.2f MB)\n", output, fsutil.SizeMB(output))
	fmt.Printf("Total time: %s\n", elapsed.Round(time.Millisecond))
}

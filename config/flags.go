package config

import (
	"flag"
	"fmt"
	"os"
)

// MergeFromFlags parses command-line arguments and overrides config values.
// The input file is positional; flags may appear before or after it.
func (c *Config) MergeFromFlags(args []string) error {
	fs := flag.NewFlagSet("splitrender", flag.ContinueOnError)
	fs.Usage = printUsage

	output := fs.String("output", "", "Output file path (default: output_processed.mp4)")
	outputShort := fs.String("o", "", "Shorthand for -output")

	// Config file override (handled by LoadConfig before this function is called)
	_ = fs.String("config", "", "Path to config file (default: search standard locations)")

	// Execution settings (-1 means not set)
	workers := fs.Int("workers", -1, "Number of parallel workers (0 = auto-detect)")
	workersShort := fs.Int("w", -1, "Shorthand for -workers")
	filter := fs.String("filter", "", "ffmpeg filter chain applied to every segment")
	tempDir := fs.String("temp-dir", "", "Working directory for segment files")

	// Benchmark settings
	skipSerial := fs.Bool("skip-serial", false, "Skip the serial baseline")
	sweep := fs.Bool("sweep", false, "Benchmark 1, 2, 4, ... workers up to -workers")
	export := fs.String("export", "", "Write the benchmark report as JSON to this path")

	// Adaptive settings
	smart := fs.Bool("smart", false, "Choose workers and filter from the media itself")
	variant := fs.String("variant", "", "Adaptive variant: resolution (v1) or content-aware (v2)")

	// Behavioral flags
	keepTemp := fs.Bool("keep-temp", false, "Keep segment files after the run")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")

	rest := args
	var positional []string
	for {
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	switch len(positional) {
	case 0:
	case 1:
		c.Input = positional[0]
	default:
		return fmt.Errorf("unexpected arguments after input: %v", positional[1:])
	}

	// Override with flag values (only if explicitly set)
	if *outputShort != "" {
		c.Output = *outputShort
	}
	if *output != "" {
		c.Output = *output
	}
	if *workersShort >= 0 {
		c.Workers = *workersShort
	}
	if *workers >= 0 {
		c.Workers = *workers
	}
	if *filter != "" {
		c.Filter = *filter
	}
	if *tempDir != "" {
		c.TempDir = *tempDir
	}
	if *export != "" {
		c.Export = *export
	}
	if *variant != "" {
		c.Adaptive.Variant = *variant
	}

	if *skipSerial {
		c.SkipSerial = true
	}
	if *sweep {
		c.Sweep = true
	}
	if *smart {
		c.Smart = true
	}
	if *keepTemp {
		c.KeepTemp = true
	}
	if *verbose {
		c.Verbose = true
	}

	return nil
}

// printUsage prints help text
func printUsage() {
	fmt.Fprintf(os.Stderr, `splitrender - Parallel split-process-merge video rendering

USAGE:
  splitrender INPUT [OPTIONS]

ARGUMENTS:
  INPUT
        Input video file path (required)

CONFIGURATION:
  -config string
        Path to config file (default: search ./splitrender.yaml, ~/.splitrender/config.yaml, /etc/splitrender/config.yaml)

EXECUTION SETTINGS:
  -o, -output string
        Output file path (default: output_processed.mp4)
  -w, -workers int
        Number of parallel workers (0 = auto-detect CPU count) (default: 0)
  -filter string
        ffmpeg filter chain applied to every segment (default: unsharp=5:5:1.5:5:5:0.5)
  -temp-dir string
        Working directory for segment files (default: .temp_chunks)

BENCHMARK:
  --skip-serial
        Skip the serial baseline (no speedup or Amdahl analysis)
  --sweep
        Run 1, 2, 4, ... workers up to -workers and compare
  -export string
        Write the benchmark report as JSON

ADAPTIVE:
  --smart
        Choose workers and filter from the media itself
  -variant string
        resolution (v1) or content-aware (v2) (default: resolution)

BEHAVIORAL FLAGS:
  --keep-temp
        Keep segment files after the run
  --verbose
        Enable verbose logging

EXAMPLES:
  # Serial baseline plus one parallel run on all cores
  splitrender movie.mp4

  # Eight workers, custom filter, no baseline
  splitrender movie.mp4 -w 8 -filter "hqdn3d" --skip-serial

  # Worker sweep with JSON export
  splitrender movie.mp4 --sweep -workers 8 -export bench.json

  # Let the content-aware configurator decide
  splitrender movie.mp4 --smart -variant v2

CONFIGURATION FILES:
  Config files are searched in order:
    1. ./splitrender.yaml
    2. ~/.splitrender/config.yaml
    3. /etc/splitrender/config.yaml

  Priority: CLI flags > Config file > Defaults

`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig() {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                 Effective Configuration                  ")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("Input:          %s\n", c.Input)
	fmt.Printf("Output:         %s\n", c.Output)
	fmt.Printf("Workers:        %d\n", c.Workers)
	fmt.Printf("Filter:         %s\n", c.Filter)
	fmt.Printf("Temp Dir:       %s\n", c.TempDir)

	fmt.Println("\nVideo Settings:")
	fmt.Printf("  Codec:        %s\n", c.Video.Codec)
	fmt.Printf("  Preset:       %s\n", c.Video.Preset)
	fmt.Printf("  CRF:          %d\n", c.Video.CRF)
	fmt.Printf("  Audio:        %s\n", c.Video.AudioCodec)

	fmt.Println("\nBenchmark:")
	fmt.Printf("  Serial:       %v\n", !c.SkipSerial)
	fmt.Printf("  Sweep:        %v\n", c.Sweep)
	if c.Export != "" {
		fmt.Printf("  Export:       %s\n", c.Export)
	}

	if c.Smart {
		fmt.Println("\nAdaptive:")
		fmt.Printf("  Variant:      %s\n", c.Adaptive.Variant)
	}

	fmt.Println("\nBehavioral Flags:")
	fmt.Printf("  Keep Temp:     %v\n", c.KeepTemp)
	fmt.Printf("  Verbose:       %v\n", c.Verbose)
	fmt.Println("═══════════════════════════════════════════════════════════")
}

package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"splitrender/pipeline"
)

// ParallelRunner runs one full pipeline pass.
type ParallelRunner interface {
	Run(ctx context.Context, req pipeline.Request, hooks pipeline.Hooks) (pipeline.Result, error)
}

// SweepRequest describes the input shared by every pass of a sweep.
type SweepRequest struct {
	Input    string
	WorkDir  string
	Duration float64
	Filter   string
}

// Entry is the outcome of one worker count.
type Entry struct {
	Workers        int       `json:"workers"`
	Seconds        *float64  `json:"time"`
	Success        bool      `json:"success"`
	SegmentSeconds []float64 `json:"chunk_times,omitempty"`
	Error          string    `json:"error,omitempty"`
	Output         string    `json:"-"`
}

// OutputName is the per-count output file written inside the sweep work dir.
func OutputName(workers int) string {
	return fmt.Sprintf("output_%dw.mp4", workers)
}

// WorkerSeries returns 1, the powers of two up to max, and max itself,
// ascending and without duplicates.
//
// Example:
//
//	WorkerSeries(8)  // [1 2 4 8]
//	WorkerSeries(12) // [1 2 4 8 12]
func WorkerSeries(max int) []int {
	if max < 1 {
		return []int{1}
	}
	seen := map[int]bool{1: true}
	series := []int{1}
	for w := 2; w <= max; w *= 2 {
		if !seen[w] {
			seen[w] = true
			series = append(series, w)
		}
	}
	if !seen[max] {
		series = append(series, max)
	}
	sort.Ints(series)
	return series
}

// Sweep runs one pass per worker count in WorkerSeries(max). Each pass
// writes to its own output file and segment directory under req.WorkDir.
// A failing pass is recorded and the sweep continues with the next count.
func Sweep(ctx context.Context, runner ParallelRunner, req SweepRequest, max int, logger zerolog.Logger) []Entry {
	logger = logger.With().Str("component", "sweep").Logger()
	series := WorkerSeries(max)
	entries := make([]Entry, 0, len(series))

	for _, n := range series {
		output := filepath.Join(req.WorkDir, OutputName(n))
		res, err := runner.Run(ctx, pipeline.Request{
			Input:    req.Input,
			Output:   output,
			WorkDir:  filepath.Join(req.WorkDir, fmt.Sprintf("segments_%dw", n)),
			Duration: req.Duration,
			Workers:  n,
			Filter:   req.Filter,
		}, pipeline.Hooks{})

		entry := Entry{Workers: n, Output: output}
		if err != nil {
			entry.Error = err.Error()
			logger.Warn().Err(err).Int("workers", n).Msg("sweep pass failed")
		} else {
			seconds := res.Seconds
			entry.Seconds = &seconds
			entry.Success = true
			entry.SegmentSeconds = res.SegmentSeconds()
			logger.Info().Int("workers", n).Float64("elapsed", seconds).Msg("sweep pass finished")
		}
		entries = append(entries, entry)
	}

	return entries
}

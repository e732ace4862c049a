// Package pipeline runs one split-process-merge pass: plan segments,
// encode them in parallel, and reassemble the output.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"splitrender/chunker"
	"splitrender/concatenator"
	"splitrender/models"
	"splitrender/orchestrator"
)

// Phase names the engine stage currently running.
type Phase string

const (
	PhaseParallel Phase = "parallel"
	PhaseMerging  Phase = "merging"
)

// Merger joins encoded segments, in order, into dest.
type Merger interface {
	Concatenate(ctx context.Context, paths []string, dest, workDir string) (concatenator.Strategy, error)
}

// Hooks lets callers observe a run. Both fields are optional.
type Hooks struct {
	OnPhase    func(phase Phase)
	OnProgress orchestrator.ProgressFunc
}

// Request describes one pipeline pass.
type Request struct {
	Input    string
	Output   string
	WorkDir  string
	Duration float64
	Workers  int
	Filter   string
}

// Result describes a completed pass.
type Result struct {
	Workers  int                    `json:"workers"`
	Seconds  float64                `json:"seconds"`
	Segments []models.SegmentResult `json:"segments"`
	Strategy concatenator.Strategy  `json:"strategy"`
}

// SegmentSeconds returns per-segment encode times ordered by segment id.
func (r Result) SegmentSeconds() []float64 {
	out := make([]float64, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = s.Elapsed
	}
	return out
}

// Engine wires the planner, the coordinator and the reassembler together.
type Engine struct {
	worker orchestrator.SegmentWorker
	merger Merger
	logger zerolog.Logger
}

// NewEngine creates an engine.
func NewEngine(worker orchestrator.SegmentWorker, merger Merger, logger zerolog.Logger) *Engine {
	return &Engine{
		worker: worker,
		merger: merger,
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// Run executes one pass. Segment files are written into req.WorkDir, which
// is created if needed and left in place for the caller to clean up.
//
// Any segment failure aborts the pass before reassembly; no output is
// written in that case.
func (e *Engine) Run(ctx context.Context, req Request, hooks Hooks) (Result, error) {
	if req.Output == "" {
		return Result{}, fmt.Errorf("output path cannot be empty")
	}
	if req.WorkDir == "" {
		return Result{}, fmt.Errorf("work directory cannot be empty")
	}

	started := time.Now()

	tasks, err := chunker.PlanSegments(req.Input, req.WorkDir, req.Duration, req.Workers)
	if err != nil {
		return Result{}, fmt.Errorf("failed to plan segments: %w", err)
	}
	if err := chunker.ValidateSegments(tasks, req.Duration); err != nil {
		return Result{}, fmt.Errorf("invalid segment plan: %w", err)
	}
	if err := os.MkdirAll(req.WorkDir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create work directory: %w", err)
	}

	e.logger.Info().
		Str("input", req.Input).
		Int("workers", req.Workers).
		Int("segments", len(tasks)).
		Float64("duration", req.Duration).
		Msg("starting parallel pass")

	if hooks.OnPhase != nil {
		hooks.OnPhase(PhaseParallel)
	}

	coord := orchestrator.NewCoordinator(e.worker, e.logger)
	if hooks.OnProgress != nil {
		coord.SetProgressCallback(hooks.OnProgress)
	}

	segments, err := coord.Run(ctx, tasks, req.Filter, req.Workers)
	if err != nil {
		return Result{Workers: req.Workers, Segments: segments}, err
	}

	if hooks.OnPhase != nil {
		hooks.OnPhase(PhaseMerging)
	}

	paths := make([]string, len(tasks))
	for i, task := range tasks {
		paths[i] = task.DestPath
	}

	strategy, err := e.merger.Concatenate(ctx, paths, req.Output, req.WorkDir)
	if err != nil {
		return Result{Workers: req.Workers, Segments: segments}, err
	}

	res := Result{
		Workers:  req.Workers,
		Seconds:  time.Since(started).Seconds(),
		Segments: segments,
		Strategy: strategy,
	}

	e.logger.Info().
		Int("workers", req.Workers).
		Float64("elapsed", res.Seconds).
		Str("strategy", string(strategy)).
		Msg("parallel pass finished")

	return res, nil
}

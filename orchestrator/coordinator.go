// Package orchestrator dispatches segment encodes across a bounded pool of
// encoder processes and enforces all-or-nothing success.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"splitrender/models"
)

// SegmentWorker encodes one segment. Implementations run one external
// encoder process per call and must report failures in the result rather
// than panicking.
type SegmentWorker interface {
	Encode(ctx context.Context, task models.SegmentTask, filter string) models.SegmentResult
}

// WorkerFunc adapts a function to SegmentWorker.
type WorkerFunc func(ctx context.Context, task models.SegmentTask, filter string) models.SegmentResult

// Encode calls f.
func (f WorkerFunc) Encode(ctx context.Context, task models.SegmentTask, filter string) models.SegmentResult {
	return f(ctx, task, filter)
}

// ProgressFunc is invoked once per finished segment with a strictly
// increasing completed count.
type ProgressFunc func(completed, total int, result models.SegmentResult)

// SegmentEncodeError reports that at least one segment failed. Failed is
// sorted by segment id.
type SegmentEncodeError struct {
	Failed []models.SegmentResult
}

func (e *SegmentEncodeError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		ids[i] = fmt.Sprintf("%d", r.ID)
	}
	msg := fmt.Sprintf("%d segment(s) failed [%s]", len(e.Failed), strings.Join(ids, ", "))
	if len(e.Failed) > 0 {
		msg += fmt.Sprintf(": segment %d: %s", e.Failed[0].ID, e.Failed[0].Error)
	}
	return msg
}

// FailedIDs returns the ids of every failed segment in ascending order.
func (e *SegmentEncodeError) FailedIDs() []int {
	ids := make([]int, len(e.Failed))
	for i, r := range e.Failed {
		ids[i] = r.ID
	}
	return ids
}

// Coordinator runs segment tasks with at most N concurrent workers.
type Coordinator struct {
	worker     SegmentWorker
	logger     zerolog.Logger
	onProgress ProgressFunc
}

// NewCoordinator creates a coordinator around worker.
func NewCoordinator(worker SegmentWorker, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		worker: worker,
		logger: logger.With().Str("component", "coordinator").Logger(),
	}
}

// SetProgressCallback sets a callback for progress updates. The callback is
// always invoked from a single goroutine.
func (c *Coordinator) SetProgressCallback(callback ProgressFunc) {
	c.onProgress = callback
}

// Run dispatches every task and waits for all of them.
//
// A failing segment never stops dispatch of the remaining tasks and never
// cancels running siblings. When every result is in, any failure is
// returned as *SegmentEncodeError together with all results; otherwise the
// results are returned sorted by segment id.
func (c *Coordinator) Run(ctx context.Context, tasks []models.SegmentTask, filter string, workers int) ([]models.SegmentResult, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", workers)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no segments to encode")
	}
	if err := checkUniqueIDs(tasks); err != nil {
		return nil, err
	}

	total := len(tasks)
	results := make(chan models.SegmentResult, total)
	started := time.Now()

	c.logger.Info().
		Int("segments", total).
		Int("workers", workers).
		Msg("dispatching segments")

	// Plain Group: a failure must not cancel in-flight siblings.
	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		for _, task := range tasks {
			g.Go(func() error {
				results <- c.execute(ctx, task, filter)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	collected := make([]models.SegmentResult, 0, total)
	for res := range results {
		collected = append(collected, res)

		event := c.logger.Debug()
		if !res.Success {
			event = c.logger.Warn().Str("error", res.Error)
		}
		event.Int("segment", res.ID).
			Float64("elapsed", res.Elapsed).
			Int("completed", len(collected)).
			Int("total", total).
			Msg("segment finished")

		if c.onProgress != nil {
			c.onProgress(len(collected), total, res)
		}
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].ID < collected[j].ID
	})

	if err := checkCompleteness(tasks, collected); err != nil {
		return collected, err
	}

	var failed []models.SegmentResult
	for _, res := range collected {
		if !res.Success {
			failed = append(failed, res)
		}
	}

	c.logger.Info().
		Int("segments", total).
		Int("failed", len(failed)).
		Dur("elapsed", time.Since(started)).
		Msg("all segments finished")

	if len(failed) > 0 {
		return collected, &SegmentEncodeError{Failed: failed}
	}
	return collected, nil
}

// execute runs one task, pinning the result id to the task and converting
// a worker panic into a failed result.
func (c *Coordinator) execute(ctx context.Context, task models.SegmentTask, filter string) (res models.SegmentResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = models.NewSegmentFailure(task.ID, time.Since(start).Seconds(), fmt.Sprintf("worker panic: %v", r))
		}
	}()

	res = c.worker.Encode(ctx, task, filter)
	res.ID = task.ID
	if res.Elapsed <= 0 {
		res.Elapsed = time.Since(start).Seconds()
	}
	if !res.Success && strings.TrimSpace(res.Error) == "" {
		res = models.NewSegmentFailure(task.ID, res.Elapsed, "")
	}
	return res
}

func checkUniqueIDs(tasks []models.SegmentTask) error {
	seen := make(map[int]bool, len(tasks))
	for _, task := range tasks {
		if seen[task.ID] {
			return fmt.Errorf("duplicate segment id %d", task.ID)
		}
		seen[task.ID] = true
	}
	return nil
}

// checkCompleteness verifies that results and tasks cover the same ids.
func checkCompleteness(tasks []models.SegmentTask, results []models.SegmentResult) error {
	if len(results) != len(tasks) {
		return fmt.Errorf("expected %d results, got %d", len(tasks), len(results))
	}
	got := make(map[int]bool, len(results))
	for _, res := range results {
		if got[res.ID] {
			return fmt.Errorf("duplicate result for segment %d", res.ID)
		}
		got[res.ID] = true
	}
	for _, task := range tasks {
		if !got[task.ID] {
			return fmt.Errorf("missing result for segment %d", task.ID)
		}
	}
	return nil
}

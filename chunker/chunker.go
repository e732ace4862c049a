// Package chunker partitions a source duration into contiguous segments
// for parallel encoding.
package chunker

import (
	"fmt"
	"math"
	"path/filepath"

	"splitrender/models"
)

const (
	// OversubscriptionFactor is the number of segments planned per worker.
	// Extra segments let fast workers pick up slack from slow ones.
	OversubscriptionFactor = 1.5

	// SegmentFilePattern names segment outputs inside the work directory.
	SegmentFilePattern = "segment_%03d.mp4"
)

// SegmentCount returns the number of segments planned for a worker count:
// max(W, round(1.5*W)).
func SegmentCount(workers int) int {
	count := int(math.Round(OversubscriptionFactor * float64(workers)))
	if count < workers {
		count = workers
	}
	return count
}

// PlanSegments splits [0, duration) into SegmentCount(workers) contiguous tasks.
//
// Start times are computed as duration*i/count so that each boundary is
// derived from the total rather than accumulated. Every segment but the last
// spans from its start to the next start; the last absorbs the rounding
// remainder so the union of all segments is exactly [0, duration).
//
// Example:
//
//	tasks, err := chunker.PlanSegments("/in/movie.mp4", "/tmp/job", 10.0, 4)
//	// 6 tasks, each ~1.667s, the last ending at exactly 10.0
func PlanSegments(sourcePath, workDir string, duration float64, workers int) ([]models.SegmentTask, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", workers)
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("invalid duration: %.3f seconds", duration)
	}
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	count := SegmentCount(workers)
	starts := make([]float64, count)
	for i := range starts {
		starts[i] = duration * float64(i) / float64(count)
	}

	tasks := make([]models.SegmentTask, 0, count)
	for i, start := range starts {
		var segDuration float64
		if i == count-1 {
			segDuration = duration - start
		} else {
			segDuration = starts[i+1] - start
		}

		task, err := models.NewSegmentTask(
			i,
			start,
			segDuration,
			sourcePath,
			filepath.Join(workDir, fmt.Sprintf(SegmentFilePattern, i)),
		)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// ValidateSegments validates a plan for completeness and correctness
// against the source duration.
func ValidateSegments(tasks []models.SegmentTask, duration float64) error {
	if len(tasks) == 0 {
		return fmt.Errorf("segment list is empty")
	}

	for i, task := range tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("segment %d is invalid: %w", i, err)
		}
	}

	// Check for consistent source path
	firstSource := tasks[0].SourcePath
	for i, task := range tasks {
		if task.SourcePath != firstSource {
			return fmt.Errorf("segment %d has different source path: expected %s, got %s",
				i, firstSource, task.SourcePath)
		}
	}

	// Check for sequential IDs starting at zero
	for i, task := range tasks {
		if task.ID != i {
			return fmt.Errorf("segment %d has incorrect ID: expected %d, got %d", i, i, task.ID)
		}
	}

	if tasks[0].Start != 0 {
		return fmt.Errorf("first segment starts at %.6f, expected 0", tasks[0].Start)
	}

	// Check for gaps and overlaps
	for i := 0; i < len(tasks)-1; i++ {
		currentEnd := tasks[i].End()
		nextStart := tasks[i+1].Start
		if currentEnd != nextStart {
			return fmt.Errorf("segments %d and %d are not contiguous: %d ends at %.6f, %d starts at %.6f",
				i, i+1, i, currentEnd, i+1, nextStart)
		}
	}

	last := tasks[len(tasks)-1]
	if last.End() != duration {
		return fmt.Errorf("segments cover [0, %.6f), expected [0, %.6f)", last.End(), duration)
	}

	return nil
}

// TotalDuration sums segment durations.
func TotalDuration(tasks []models.SegmentTask) float64 {
	total := 0.0
	for _, task := range tasks {
		total += task.Duration
	}
	return total
}

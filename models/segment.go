package models

import (
	"fmt"
	"strings"
)

// SegmentTask is one contiguous time slice of the source assigned to a worker.
//
// Tasks are produced by the segment planner and are immutable once created.
// IDs form the contiguous range 0..N-1 and define the reassembly order.
//
// Note: Start and Duration use float64 to preserve fractional seconds,
// which keeps the union of all tasks equal to the full source duration.
type SegmentTask struct {
	ID         int     `json:"id"`
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	SourcePath string  `json:"source_path"`
	DestPath   string  `json:"dest_path"`
}

// NewSegmentTask creates a new SegmentTask with validation.
//
// Example:
//
//	task, err := models.NewSegmentTask(0, 0.0, 4.2, "/in/video.mp4", "/tmp/segment_000.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewSegmentTask(id int, start, duration float64, source, dest string) (SegmentTask, error) {
	t := SegmentTask{
		ID:         id,
		Start:      start,
		Duration:   duration,
		SourcePath: source,
		DestPath:   dest,
	}
	if err := t.Validate(); err != nil {
		return SegmentTask{}, fmt.Errorf("invalid segment: %w", err)
	}
	return t, nil
}

// End returns the exclusive end time of the segment.
func (t SegmentTask) End() float64 {
	return t.Start + t.Duration
}

// Validate checks if the SegmentTask has valid data.
//
// Returns an error if:
//   - ID or Start is negative
//   - Duration is not positive
//   - SourcePath or DestPath is empty or whitespace-only
func (t SegmentTask) Validate() error {
	if t.ID < 0 {
		return fmt.Errorf("id cannot be negative")
	}
	if strings.TrimSpace(t.SourcePath) == "" {
		return fmt.Errorf("source_path cannot be empty")
	}
	if strings.TrimSpace(t.DestPath) == "" {
		return fmt.Errorf("dest_path cannot be empty")
	}
	if t.Start < 0 {
		return fmt.Errorf("start cannot be negative")
	}
	if t.Duration <= 0 {
		return fmt.Errorf("duration must be greater than 0")
	}
	return nil
}

// Package command provides the core Command interface for building and
// executing ffmpeg invocations.
//
// Builders implement Command so that workers, benchmarks and dry runs can
// treat segment encodes and full-file encodes the same way.
package command

import (
	"context"

	"splitrender/ffmpeg"
)

// TaskType represents the type of encoding task.
type TaskType string

const (
	TaskTypeSegment TaskType = "segment" // One time slice of the source
	TaskTypeFull    TaskType = "full"    // Whole-file (or sampled) serial encode
)

// Command represents an ffmpeg command that can be built, executed, or previewed.
//
// Example usage:
//
//	task := models.SegmentTask{ID: 0, Start: 0, Duration: 2.5, SourcePath: "in.mp4", DestPath: "segment_000.mp4"}
//	cmd := video.NewSegmentBuilder(task).
//		SetFilterChain("unsharp=5:5:1.5:5:5:0.5").
//		SetPreset("ultrafast")
//
//	// Preview the command
//	line, _ := cmd.DryRun()
//
//	// Execute the command
//	err := cmd.Run(ctx, ffmpeg.ExecRunner{})
type Command interface {
	// BuildArgs constructs and returns the ffmpeg arguments as a slice,
	// excluding the binary name.
	BuildArgs() []string

	// Run executes the command through runner and blocks until the
	// process exits. A missing output file is reported as an error even
	// when the process exits cleanly.
	Run(ctx context.Context, runner ffmpeg.Runner) error

	// DryRun returns the command line without executing it.
	DryRun() (string, error)

	// GetTaskType returns the type of task.
	GetTaskType() TaskType

	// GetInputPath returns the primary input file path for this command.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}

// Package video builds ffmpeg invocations that apply a filter chain and
// re-encode video, either for one segment or for a whole file.
package video

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"splitrender/command"
	"splitrender/ffmpeg"
	"splitrender/internal/timeutil"
	"splitrender/models"
)

// Defaults match the segment encode settings used across the engine.
const (
	DefaultCodec      = "libx264"
	DefaultPreset     = "ultrafast"
	DefaultCRF        = 23
	DefaultAudioCodec = "copy"
)

// VideoBuilder implements filtered re-encoding of a time range
type VideoBuilder struct {
	bin        string
	inputPath  string
	outputPath string
	taskType   command.TaskType

	// Time range; hasRange is false for whole-file encodes
	start    float64
	duration float64
	hasRange bool

	// Encoding settings
	codec      string
	preset     string
	crf        int
	audioCodec string

	filters   []string
	extraArgs []string
}

func newBuilder(input, output string, taskType command.TaskType) *VideoBuilder {
	return &VideoBuilder{
		bin:        "ffmpeg",
		inputPath:  input,
		outputPath: output,
		taskType:   taskType,
		codec:      DefaultCodec,
		preset:     DefaultPreset,
		crf:        DefaultCRF,
		audioCodec: DefaultAudioCodec,
		filters:    []string{},
		extraArgs:  []string{},
	}
}

// NewSegmentBuilder creates a builder that encodes exactly one segment.
func NewSegmentBuilder(task models.SegmentTask) *VideoBuilder {
	b := newBuilder(task.SourcePath, task.DestPath, command.TaskTypeSegment)
	b.start = task.Start
	b.duration = task.Duration
	b.hasRange = true
	return b
}

// NewFullBuilder creates a builder that encodes the whole input.
func NewFullBuilder(input, output string) *VideoBuilder {
	return newBuilder(input, output, command.TaskTypeFull)
}

// SetBinary overrides the ffmpeg executable path
func (v *VideoBuilder) SetBinary(bin string) *VideoBuilder {
	if bin != "" {
		v.bin = bin
	}
	return v
}

// SetRange limits the encode to [start, start+duration)
func (v *VideoBuilder) SetRange(start, duration float64) *VideoBuilder {
	v.start = start
	v.duration = duration
	v.hasRange = true
	return v
}

// SetCodec sets the video codec (e.g., "libx264", "libx265")
func (v *VideoBuilder) SetCodec(codec string) *VideoBuilder {
	v.codec = codec
	return v
}

// SetPreset sets the encoding preset (ultrafast ... veryslow)
func (v *VideoBuilder) SetPreset(preset string) *VideoBuilder {
	v.preset = preset
	return v
}

// SetCRF sets the Constant Rate Factor (0-51, lower is better quality).
// A negative value omits -crf entirely.
func (v *VideoBuilder) SetCRF(crf int) *VideoBuilder {
	v.crf = crf
	return v
}

// SetAudioCodec sets the audio codec; "copy" passes audio through.
func (v *VideoBuilder) SetAudioCodec(codec string) *VideoBuilder {
	v.audioCodec = codec
	return v
}

// SetFilterChain replaces the filter chain with an ffmpeg -vf expression.
// An empty chain disables filtering.
func (v *VideoBuilder) SetFilterChain(chain string) *VideoBuilder {
	v.filters = v.filters[:0]
	if strings.TrimSpace(chain) != "" {
		v.filters = append(v.filters, strings.TrimSpace(chain))
	}
	return v
}

// AddFilter appends one filter to the chain
func (v *VideoBuilder) AddFilter(filter string) *VideoBuilder {
	if strings.TrimSpace(filter) != "" {
		v.filters = append(v.filters, strings.TrimSpace(filter))
	}
	return v
}

// AddExtraArgs adds custom ffmpeg arguments before the output path
func (v *VideoBuilder) AddExtraArgs(args ...string) *VideoBuilder {
	v.extraArgs = append(v.extraArgs, args...)
	return v
}

// FilterChain returns the combined -vf expression.
func (v *VideoBuilder) FilterChain() string {
	return strings.Join(v.filters, ",")
}

// BuildArgs constructs the ffmpeg arguments.
//
// Input seeking (-ss before -i) keeps segment extraction fast, and
// -avoid_negative_ts make_zero gives every segment a zero-based timeline so
// the concat demuxer can join them.
func (v *VideoBuilder) BuildArgs() []string {
	args := []string{"-y"}

	if v.hasRange {
		args = append(args, "-ss", timeutil.SecondsArg(v.start))
	}
	args = append(args, "-i", v.inputPath)
	if v.hasRange {
		args = append(args, "-t", timeutil.SecondsArg(v.duration))
	}

	if chain := v.FilterChain(); chain != "" {
		args = append(args, "-vf", chain)
	}

	args = append(args, "-c:v", v.codec)
	if v.preset != "" {
		args = append(args, "-preset", v.preset)
	}
	if v.crf >= 0 && v.crf <= 51 {
		args = append(args, "-crf", strconv.Itoa(v.crf))
	}
	if v.audioCodec != "" {
		args = append(args, "-c:a", v.audioCodec)
	}
	if v.hasRange {
		args = append(args, "-avoid_negative_ts", "make_zero")
	}

	args = append(args, v.extraArgs...)
	args = append(args, v.outputPath)

	return args
}

// Run executes the encode and verifies the output file exists
func (v *VideoBuilder) Run(ctx context.Context, runner ffmpeg.Runner) error {
	if _, err := runner.Run(ctx, v.bin, v.BuildArgs()...); err != nil {
		return err
	}

	info, err := os.Stat(v.outputPath)
	if err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output file is empty: %s", v.outputPath)
	}
	return nil
}

// DryRun returns the command that would be executed without running it
func (v *VideoBuilder) DryRun() (string, error) {
	if v.inputPath == "" || v.outputPath == "" {
		return "", fmt.Errorf("input and output paths are required")
	}
	return ffmpeg.CommandLine(v.bin, v.BuildArgs()), nil
}

// GetTaskType returns the task type identifier
func (v *VideoBuilder) GetTaskType() command.TaskType {
	return v.taskType
}

// GetInputPath returns the input file path
func (v *VideoBuilder) GetInputPath() string {
	return v.inputPath
}

// GetOutputPath returns the output file path
func (v *VideoBuilder) GetOutputPath() string {
	return v.outputPath
}

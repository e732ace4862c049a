package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splitrender/command"
	"splitrender/ffmpeg"
	"splitrender/models"
)

func testTask() models.SegmentTask {
	return models.SegmentTask{
		ID:         2,
		Start:      10.0 / 6.0 * 2,
		Duration:   10.0 / 6.0,
		SourcePath: "/input/test.mp4",
		DestPath:   "/work/segment_002.mp4",
	}
}

func TestNewSegmentBuilder(t *testing.T) {
	builder := NewSegmentBuilder(testTask())

	if builder.inputPath != "/input/test.mp4" {
		t.Errorf("Expected input '/input/test.mp4', got '%s'", builder.inputPath)
	}
	if builder.outputPath != "/work/segment_002.mp4" {
		t.Errorf("Expected output '/work/segment_002.mp4', got '%s'", builder.outputPath)
	}
	if builder.codec != "libx264" {
		t.Errorf("Expected default codec 'libx264', got '%s'", builder.codec)
	}
	if builder.preset != "ultrafast" {
		t.Errorf("Expected default preset 'ultrafast', got '%s'", builder.preset)
	}
	if builder.GetTaskType() != command.TaskTypeSegment {
		t.Errorf("Expected segment task type, got %s", builder.GetTaskType())
	}
}

func TestVideoBuilder_SegmentArgs(t *testing.T) {
	args := NewSegmentBuilder(testTask()).
		SetFilterChain("unsharp=5:5:1.5:5:5:0.5").
		BuildArgs()

	expected := []string{
		"-y",
		"-ss", "3.333333",
		"-i", "/input/test.mp4",
		"-t", "1.666667",
		"-vf", "unsharp=5:5:1.5:5:5:0.5",
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "23",
		"-c:a", "copy",
		"-avoid_negative_ts", "make_zero",
		"/work/segment_002.mp4",
	}

	if strings.Join(args, " ") != strings.Join(expected, " ") {
		t.Errorf("Unexpected args:\n got: %v\nwant: %v", args, expected)
	}
}

func TestVideoBuilder_FullArgs(t *testing.T) {
	builder := NewFullBuilder("/in.mp4", "/out.mp4").SetFilterChain("hqdn3d")
	argsStr := strings.Join(builder.BuildArgs(), " ")

	if strings.Contains(argsStr, "-ss") || strings.Contains(argsStr, "-t ") {
		t.Errorf("Full encode should not have a time range: %s", argsStr)
	}
	if strings.Contains(argsStr, "-avoid_negative_ts") {
		t.Errorf("Full encode should not shift timestamps: %s", argsStr)
	}
	if !strings.Contains(argsStr, "-vf hqdn3d") {
		t.Errorf("Expected filter chain, got %s", argsStr)
	}
	if builder.GetTaskType() != command.TaskTypeFull {
		t.Errorf("Expected full task type, got %s", builder.GetTaskType())
	}
}

func TestVideoBuilder_SampledRange(t *testing.T) {
	argsStr := strings.Join(NewFullBuilder("/in.mp4", "/sample.mp4").SetRange(0, 2).BuildArgs(), " ")
	if !strings.Contains(argsStr, "-ss 0 -i /in.mp4 -t 2") {
		t.Errorf("Expected sampled range, got %s", argsStr)
	}
}

func TestVideoBuilder_EmptyFilterChain(t *testing.T) {
	argsStr := strings.Join(NewSegmentBuilder(testTask()).SetFilterChain("  ").BuildArgs(), " ")
	if strings.Contains(argsStr, "-vf") {
		t.Errorf("Empty filter chain should omit -vf: %s", argsStr)
	}
}

func TestVideoBuilder_AddFilter(t *testing.T) {
	builder := NewSegmentBuilder(testTask()).
		SetFilterChain("hqdn3d=4:3:6:4").
		AddFilter("unsharp=3:3:0.8").
		AddFilter("")

	if builder.FilterChain() != "hqdn3d=4:3:6:4,unsharp=3:3:0.8" {
		t.Errorf("Unexpected filter chain: %s", builder.FilterChain())
	}
}

func TestVideoBuilder_EncodingSettings(t *testing.T) {
	argsStr := strings.Join(NewSegmentBuilder(testTask()).
		SetCodec("libx265").
		SetPreset("fast").
		SetCRF(-1).
		SetAudioCodec("aac").
		AddExtraArgs("-movflags", "+faststart").
		BuildArgs(), " ")

	for _, want := range []string{"-c:v libx265", "-preset fast", "-c:a aac", "-movflags +faststart /work/segment_002.mp4"} {
		if !strings.Contains(argsStr, want) {
			t.Errorf("Expected %q in %s", want, argsStr)
		}
	}
	if strings.Contains(argsStr, "-crf") {
		t.Errorf("Negative CRF should omit -crf: %s", argsStr)
	}
}

func TestVideoBuilder_DryRun(t *testing.T) {
	line, err := NewSegmentBuilder(testTask()).SetBinary("/usr/bin/ffmpeg").DryRun()
	if err != nil {
		t.Fatalf("DryRun failed: %v", err)
	}
	if !strings.HasPrefix(line, "/usr/bin/ffmpeg -y -ss") {
		t.Errorf("Unexpected dry run: %s", line)
	}

	if _, err := NewFullBuilder("", "out.mp4").DryRun(); err == nil {
		t.Error("Expected error for missing input")
	}
}

type writingRunner struct {
	content string
	err     error
	bin     string
}

func (w *writingRunner) Run(ctx context.Context, name string, args ...string) (ffmpeg.Result, error) {
	w.bin = name
	if w.err != nil {
		return ffmpeg.Result{ExitCode: 1}, w.err
	}
	if w.content != "" {
		if err := os.WriteFile(args[len(args)-1], []byte(w.content), 0644); err != nil {
			return ffmpeg.Result{}, err
		}
	}
	return ffmpeg.Result{}, nil
}

func TestVideoBuilder_Run(t *testing.T) {
	dir := t.TempDir()
	task := testTask()
	task.DestPath = filepath.Join(dir, "segment_002.mp4")

	t.Run("success", func(t *testing.T) {
		runner := &writingRunner{content: "encoded"}
		if err := NewSegmentBuilder(task).SetBinary("ffmpeg-custom").Run(context.Background(), runner); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if runner.bin != "ffmpeg-custom" {
			t.Errorf("Expected custom binary, got %s", runner.bin)
		}
	})

	t.Run("process failure", func(t *testing.T) {
		runner := &writingRunner{err: errors.New("exit status 1")}
		if err := NewSegmentBuilder(task).Run(context.Background(), runner); err == nil {
			t.Fatal("Expected error from failing process")
		}
	})

	t.Run("missing output", func(t *testing.T) {
		missing := task
		missing.DestPath = filepath.Join(dir, "never_written.mp4")
		err := NewSegmentBuilder(missing).Run(context.Background(), &writingRunner{})
		if err == nil || !strings.Contains(err.Error(), "output file not created") {
			t.Errorf("Expected missing output error, got %v", err)
		}
	})
}

func TestVideoBuilder_CommandInterface(t *testing.T) {
	var _ command.Command = NewSegmentBuilder(testTask())
	var _ command.Command = NewFullBuilder("in.mp4", "out.mp4")
}

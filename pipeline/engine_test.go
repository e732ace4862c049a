package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"splitrender/concatenator"
	"splitrender/ffmpeg"
	"splitrender/models"
	"splitrender/orchestrator"
)

// fakeFFmpeg writes the last argument as the output file unless its name
// is listed in failOutputs.
type fakeFFmpeg struct {
	mu          sync.Mutex
	failOutputs map[string]bool
	calls       [][]string
}

func (f *fakeFFmpeg) Run(ctx context.Context, name string, args ...string) (ffmpeg.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	out := args[len(args)-1]
	if f.failOutputs[filepath.Base(out)] {
		return ffmpeg.Result{ExitCode: 1}, &ffmpeg.CommandError{
			Command:  name,
			Args:     args,
			ExitCode: 1,
			Stderr:   "Invalid data found when processing input",
		}
	}
	return ffmpeg.Result{}, os.WriteFile(out, []byte("encoded"), 0644)
}

func (f *fakeFFmpeg) segmentCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, args := range f.calls {
		if strings.Contains(strings.Join(args, " "), "-ss") {
			n++
		}
	}
	return n
}

func newTestEngine(runner *fakeFFmpeg) *Engine {
	worker := NewFFmpegWorker(runner, DefaultEncodeSettings())
	merger := concatenator.NewConcatenator(runner, concatenator.DefaultOptions(), zerolog.Nop())
	return NewEngine(worker, merger, zerolog.Nop())
}

func TestEngine_Run(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeFFmpeg{}
	engine := newTestEngine(runner)

	var phases []Phase
	var progress []int
	hooks := Hooks{
		OnPhase: func(p Phase) { phases = append(phases, p) },
		OnProgress: func(completed, total int, res models.SegmentResult) {
			progress = append(progress, completed)
		},
	}

	req := Request{
		Input:    "/media/in.mp4",
		Output:   filepath.Join(dir, "out.mp4"),
		WorkDir:  filepath.Join(dir, "work"),
		Duration: 10,
		Workers:  2,
		Filter:   "unsharp=5:5:1.5:5:5:0.5",
	}

	res, err := engine.Run(context.Background(), req, hooks)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Strategy != concatenator.StrategyCopy {
		t.Errorf("Expected copy strategy, got %s", res.Strategy)
	}
	if len(res.Segments) != 3 {
		t.Errorf("Expected 3 segments for 2 workers, got %d", len(res.Segments))
	}
	if len(res.SegmentSeconds()) != len(res.Segments) {
		t.Error("SegmentSeconds length mismatch")
	}
	if res.Seconds <= 0 {
		t.Errorf("Expected positive elapsed time, got %v", res.Seconds)
	}

	if len(phases) != 2 || phases[0] != PhaseParallel || phases[1] != PhaseMerging {
		t.Errorf("Expected [parallel merging] phases, got %v", phases)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("Expected progress 1..3, got %v", progress)
	}

	if _, err := os.Stat(req.Output); err != nil {
		t.Errorf("Expected output file: %v", err)
	}
}

func TestEngine_SegmentFailureSkipsMerge(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeFFmpeg{failOutputs: map[string]bool{"segment_001.mp4": true}}
	engine := newTestEngine(runner)

	var phases []Phase
	req := Request{
		Input:    "/media/in.mp4",
		Output:   filepath.Join(dir, "out.mp4"),
		WorkDir:  dir,
		Duration: 10,
		Workers:  4,
	}

	res, err := engine.Run(context.Background(), req, Hooks{OnPhase: func(p Phase) { phases = append(phases, p) }})

	var encErr *orchestrator.SegmentEncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected *SegmentEncodeError, got %v", err)
	}
	if ids := encErr.FailedIDs(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Expected failed ids [1], got %v", ids)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("Expected encoder diagnostic in error, got: %v", err)
	}

	if got := runner.segmentCalls(); got != 6 {
		t.Errorf("Expected all 6 segments attempted, got %d", got)
	}
	if len(res.Segments) != 6 {
		t.Errorf("Expected 6 segment results, got %d", len(res.Segments))
	}
	for _, p := range phases {
		if p == PhaseMerging {
			t.Error("Merge phase must not start after a segment failure")
		}
	}
	if _, err := os.Stat(req.Output); !os.IsNotExist(err) {
		t.Error("No output should be produced when a segment fails")
	}
}

func TestEngine_InvalidRequest(t *testing.T) {
	engine := newTestEngine(&fakeFFmpeg{})
	dir := t.TempDir()

	tests := []struct {
		name string
		req  Request
	}{
		{"no output", Request{Input: "in.mp4", WorkDir: dir, Duration: 10, Workers: 2}},
		{"no work dir", Request{Input: "in.mp4", Output: "o.mp4", Duration: 10, Workers: 2}},
		{"zero workers", Request{Input: "in.mp4", Output: "o.mp4", WorkDir: dir, Duration: 10}},
		{"zero duration", Request{Input: "in.mp4", Output: "o.mp4", WorkDir: dir, Workers: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.Run(context.Background(), tt.req, Hooks{}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestFFmpegWorker_Encode(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeFFmpeg{}
	worker := NewFFmpegWorker(runner, EncodeSettings{Bin: "/opt/ffmpeg", Codec: "libx264", Preset: "veryfast", CRF: 20, AudioCodec: "copy"})

	task := models.SegmentTask{ID: 3, Start: 5, Duration: 2.5, SourcePath: "/in.mp4", DestPath: filepath.Join(dir, "segment_003.mp4")}
	res := worker.Encode(context.Background(), task, "hqdn3d")

	if !res.Success || res.ID != 3 {
		t.Fatalf("Expected success for segment 3, got %+v", res)
	}

	args := strings.Join(runner.calls[0], " ")
	for _, want := range []string{"-ss 5 -i /in.mp4 -t 2.5", "-vf hqdn3d", "-preset veryfast", "-crf 20", "-c:a copy"} {
		if !strings.Contains(args, want) {
			t.Errorf("Expected %q in args: %s", want, args)
		}
	}
}

func TestFFmpegWorker_EncodeFailure(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeFFmpeg{failOutputs: map[string]bool{"segment_000.mp4": true}}
	worker := NewFFmpegWorker(runner, DefaultEncodeSettings())

	task := models.SegmentTask{ID: 0, Start: 0, Duration: 1, SourcePath: "/in.mp4", DestPath: filepath.Join(dir, "segment_000.mp4")}
	res := worker.Encode(context.Background(), task, "")

	if res.Success {
		t.Fatal("Expected failure")
	}
	if err := res.Validate(); err != nil {
		t.Errorf("Failed result should be consistent: %v", err)
	}
	if !strings.Contains(res.Error, "Invalid data found") {
		t.Errorf("Expected stderr diagnostic, got %q", res.Error)
	}
}

package chunker

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"splitrender/models"
)

func TestSegmentCount(t *testing.T) {
	tests := []struct {
		workers  int
		expected int
	}{
		{1, 2},
		{2, 3},
		{3, 5},
		{4, 6},
		{5, 8},
		{8, 12},
		{16, 24},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d workers", tt.workers), func(t *testing.T) {
			if got := SegmentCount(tt.workers); got != tt.expected {
				t.Errorf("Expected %d segments, got %d", tt.expected, got)
			}
		})
	}
}

func TestPlanSegments_TenSecondsFourWorkers(t *testing.T) {
	tasks, err := PlanSegments("/in/video.mp4", "/tmp/job", 10.0, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(tasks) != 6 {
		t.Fatalf("Expected 6 segments, got %d", len(tasks))
	}

	for i, task := range tasks {
		if task.ID != i {
			t.Errorf("Segment %d has ID %d", i, task.ID)
		}
		if math.Abs(task.Duration-10.0/6.0) > 1e-9 {
			t.Errorf("Segment %d duration %.9f, expected ~1.667", i, task.Duration)
		}
		want := filepath.Join("/tmp/job", fmt.Sprintf("segment_%03d.mp4", i))
		if task.DestPath != want {
			t.Errorf("Segment %d dest %s, expected %s", i, task.DestPath, want)
		}
	}

	if last := tasks[len(tasks)-1]; last.End() != 10.0 {
		t.Errorf("Last segment should end at exactly 10.0, got %.12f", last.End())
	}
}

func TestPlanSegments_ExactTiling(t *testing.T) {
	durations := []float64{0.5, 1, 2.002, 10, 30.53, 61.7, 3599.96, 7200.123}
	workers := []int{1, 2, 3, 4, 6, 7, 8, 12, 16, 32}

	for _, d := range durations {
		for _, w := range workers {
			t.Run(fmt.Sprintf("%.3fs/%dw", d, w), func(t *testing.T) {
				tasks, err := PlanSegments("in.mp4", "work", d, w)
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if len(tasks) != SegmentCount(w) {
					t.Errorf("Expected %d segments, got %d", SegmentCount(w), len(tasks))
				}
				if err := ValidateSegments(tasks, d); err != nil {
					t.Errorf("Plan failed validation: %v", err)
				}
				if math.Abs(TotalDuration(tasks)-d) > 1e-9*d {
					t.Errorf("Durations sum to %.12f, expected %.12f", TotalDuration(tasks), d)
				}
			})
		}
	}
}

func TestPlanSegments_SegmentsNearlyEqual(t *testing.T) {
	tasks, err := PlanSegments("in.mp4", "work", 30.53, 8)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := 30.53 / float64(len(tasks))
	for _, task := range tasks {
		if math.Abs(task.Duration-expected) > 1e-9 {
			t.Errorf("Segment %d duration %.12f differs from %.12f", task.ID, task.Duration, expected)
		}
	}
}

func TestPlanSegments_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		duration float64
		workers  int
		contains string
	}{
		{"zero workers", "in.mp4", 10, 0, "worker count"},
		{"negative workers", "in.mp4", 10, -2, "worker count"},
		{"zero duration", "in.mp4", 0, 4, "invalid duration"},
		{"negative duration", "in.mp4", -3, 4, "invalid duration"},
		{"nan duration", "in.mp4", math.NaN(), 4, "invalid duration"},
		{"empty source", "", 10, 4, "source path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanSegments(tt.source, "work", tt.duration, tt.workers)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got: %v", tt.contains, err)
			}
		})
	}
}

func TestValidateSegments(t *testing.T) {
	seg := func(id int, start, dur float64) models.SegmentTask {
		return models.SegmentTask{ID: id, Start: start, Duration: dur, SourcePath: "in.mp4", DestPath: fmt.Sprintf("s%d.mp4", id)}
	}

	tests := []struct {
		name     string
		tasks    []models.SegmentTask
		duration float64
		contains string
	}{
		{"empty", nil, 10, "empty"},
		{"valid", []models.SegmentTask{seg(0, 0, 5), seg(1, 5, 5)}, 10, ""},
		{"gap", []models.SegmentTask{seg(0, 0, 4), seg(1, 5, 5)}, 10, "not contiguous"},
		{"overlap", []models.SegmentTask{seg(0, 0, 6), seg(1, 5, 5)}, 10, "not contiguous"},
		{"wrong ids", []models.SegmentTask{seg(1, 0, 5), seg(2, 5, 5)}, 10, "incorrect ID"},
		{"short cover", []models.SegmentTask{seg(0, 0, 5), seg(1, 5, 4)}, 10, "cover"},
		{"late start", []models.SegmentTask{seg(0, 1, 9)}, 10, "starts at"},
		{
			"mixed sources",
			[]models.SegmentTask{seg(0, 0, 5), {ID: 1, Start: 5, Duration: 5, SourcePath: "other.mp4", DestPath: "s1.mp4"}},
			10,
			"different source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegments(tt.tasks, tt.duration)
			if tt.contains == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.contains)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got: %v", tt.contains, err)
			}
		})
	}
}

// Package jobs runs pipeline passes as asynchronous jobs with a polled
// phase/progress state machine.
package jobs

import (
	"time"

	"splitrender/autoconfig"
	"splitrender/models"
)

// Status is the coarse job state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Phase is the fine-grained stage of a processing job. PhaseCompleted is
// the terminal marker for both successful and failed jobs.
type Phase string

const (
	PhaseQueued       Phase = "queued"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseBenchmarking Phase = "benchmarking"
	PhaseParallel     Phase = "parallel"
	PhaseMerging      Phase = "merging"
	PhaseCompleted    Phase = "completed"
)

var phaseOrder = map[Phase]int{
	PhaseQueued:       0,
	PhaseAnalyzing:    1,
	PhaseBenchmarking: 2,
	PhaseParallel:     3,
	PhaseMerging:      4,
	PhaseCompleted:    5,
}

// Progress reported on entry to each phase.
var phaseProgress = map[Phase]int{
	PhaseQueued:       0,
	PhaseAnalyzing:    5,
	PhaseBenchmarking: 10,
	PhaseParallel:     10,
	PhaseMerging:      95,
	PhaseCompleted:    100,
}

// isValidTransition reports whether a job may move from one phase to
// another. Phases only move forward; benchmarking may be skipped.
func isValidTransition(from, to Phase) bool {
	f, ok1 := phaseOrder[from]
	t, ok2 := phaseOrder[to]
	if !ok1 || !ok2 {
		return false
	}
	return t > f
}

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of one render job.
type Job struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Phase  Phase  `json:"phase"`

	// Progress is 0-100 and reaches 100 only when Status is completed.
	Progress int `json:"progress"`

	Input          string `json:"input"`
	Workers        int    `json:"workers"`
	FilterChain    string `json:"filter_chain"`
	Smart          bool   `json:"smart"`
	EngineVariant  string `json:"engine_variant,omitempty"`
	SerialBaseline bool   `json:"serial_baseline"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	OutputPath             string   `json:"output,omitempty"`
	ElapsedSeconds         float64  `json:"elapsed_seconds,omitempty"`
	ProjectedSerialSeconds *float64 `json:"projected_serial_seconds,omitempty"`
	Error                  string   `json:"error,omitempty"`

	SmartConfig      *autoconfig.Decision     `json:"smart_config,omitempty"`
	ComparisonReport *models.ComparisonReport `json:"comparison_report,omitempty"`

	PhaseHistory []Phase `json:"phase_history"`
}

// clone deep-copies j so readers never share memory with the owner.
func (j Job) clone() Job {
	out := j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		out.FinishedAt = &t
	}
	if j.ProjectedSerialSeconds != nil {
		v := *j.ProjectedSerialSeconds
		out.ProjectedSerialSeconds = &v
	}
	if j.SmartConfig != nil {
		d := *j.SmartConfig
		if d.MotionScore != nil {
			m := *d.MotionScore
			d.MotionScore = &m
		}
		out.SmartConfig = &d
	}
	if j.ComparisonReport != nil {
		r := *j.ComparisonReport
		if r.PSNRAvg != nil {
			v := *r.PSNRAvg
			r.PSNRAvg = &v
		}
		if r.SSIMAll != nil {
			v := *r.SSIMAll
			r.SSIMAll = &v
		}
		out.ComparisonReport = &r
	}
	out.PhaseHistory = append([]Phase(nil), j.PhaseHistory...)
	return out
}

// Package metrics keeps process-wide job counters and exposes them to
// Prometheus.
package metrics

import (
	"math"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds job counters. All methods are safe for concurrent use.
type Collector struct {
	submitted  atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
	queued     atomic.Int64
	active     atomic.Int64
	frames     atomic.Int64

	// processing seconds stored as float64 bits
	processingBits atomic.Uint64

	registry *prometheus.Registry
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	TotalJobs         int64   `json:"total_jobs"`
	SuccessfulJobs    int64   `json:"completed_jobs"`
	FailedJobs        int64   `json:"failed_jobs"`
	QueuedJobs        int64   `json:"queued_jobs"`
	ActiveJobs        int64   `json:"active_jobs"`
	TotalFrames       int64   `json:"total_frames_processed"`
	ProcessingSeconds float64 `json:"total_processing_seconds"`
	AvgThroughputFPS  float64 `json:"avg_throughput_fps"`
	SuccessRate       float64 `json:"success_rate"`
}

// NewCollector creates a collector with its own Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	counter := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "splitrender",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}
	gauge := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "splitrender",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}

	c.registry.MustRegister(
		counter("jobs_submitted_total", "Jobs accepted for rendering.", &c.submitted),
		counter("jobs_succeeded_total", "Jobs that completed successfully.", &c.successful),
		counter("jobs_failed_total", "Jobs that ended in failure.", &c.failed),
		counter("frames_processed_total", "Frames rendered by successful jobs.", &c.frames),
		gauge("jobs_queued", "Jobs waiting for an execution slot.", &c.queued),
		gauge("jobs_active", "Jobs currently running.", &c.active),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "splitrender",
			Name:      "processing_seconds_total",
			Help:      "Wall-clock seconds spent in successful parallel passes.",
		}, c.processingSeconds),
	)
	return c
}

// JobQueued records a newly submitted job.
func (c *Collector) JobQueued() {
	c.submitted.Add(1)
	c.queued.Add(1)
}

// JobStarted moves a job from queued to active.
func (c *Collector) JobStarted() {
	c.queued.Add(-1)
	c.active.Add(1)
}

// JobSucceeded records a completed job and its work.
func (c *Collector) JobSucceeded(frames int64, seconds float64) {
	c.active.Add(-1)
	c.successful.Add(1)
	c.frames.Add(frames)
	for {
		old := c.processingBits.Load()
		next := math.Float64bits(math.Float64frombits(old) + seconds)
		if c.processingBits.CompareAndSwap(old, next) {
			return
		}
	}
}

// JobFailed records a failed job.
func (c *Collector) JobFailed() {
	c.active.Add(-1)
	c.failed.Add(1)
}

func (c *Collector) processingSeconds() float64 {
	return math.Float64frombits(c.processingBits.Load())
}

// Snapshot returns the current counters with derived rates.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		TotalJobs:         c.submitted.Load(),
		SuccessfulJobs:    c.successful.Load(),
		FailedJobs:        c.failed.Load(),
		QueuedJobs:        c.queued.Load(),
		ActiveJobs:        c.active.Load(),
		TotalFrames:       c.frames.Load(),
		ProcessingSeconds: c.processingSeconds(),
	}
	if s.ProcessingSeconds > 0 {
		s.AvgThroughputFPS = float64(s.TotalFrames) / s.ProcessingSeconds
	}
	if done := s.SuccessfulJobs + s.FailedJobs; done > 0 {
		s.SuccessRate = float64(s.SuccessfulJobs) / float64(done) * 100
	}
	return s
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"splitrender/autoconfig"
	"splitrender/metrics"
	"splitrender/models"
	"splitrender/pipeline"
)

var (
	// ErrNotFound is returned for an unknown job id.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidRequest wraps every submit validation failure.
	ErrInvalidRequest = errors.New("invalid job request")
)

// DefaultFilter is applied when a request names no filter chain.
const DefaultFilter = "unsharp=5:5:1.5:5:5:0.5"

// Prober extracts source metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (models.MediaMetadata, error)
}

// Engine runs one parallel pass.
type Engine interface {
	Run(ctx context.Context, req pipeline.Request, hooks pipeline.Hooks) (pipeline.Result, error)
}

// Baseline projects the serial encode time from a short sample.
type Baseline interface {
	SampledBaseline(ctx context.Context, input, output, filter string, sampleSeconds, totalDuration float64) (float64, error)
}

// Comparer builds the post-render quality report.
type Comparer interface {
	Compare(ctx context.Context, input, output string, sampleSeconds float64) (models.ComparisonReport, error)
}

// Deps are the collaborators a Manager drives. Baseline and Comparer are
// optional.
type Deps struct {
	Prober        Prober
	Engine        Engine
	Baseline      Baseline
	Comparer      Comparer
	Configurators *autoconfig.Registry
	Metrics       *metrics.Collector
	Logger        zerolog.Logger
}

// Options tune a Manager.
type Options struct {
	OutputDir            string
	TempDir              string
	MaxConcurrentJobs    int
	DefaultWorkers       int
	DefaultFilter        string
	DefaultVariant       string
	SerialSampleSeconds  float64
	CompareSampleSeconds float64
}

// SubmitRequest describes a job to run.
type SubmitRequest struct {
	Input          string `json:"input_path"`
	Workers        int    `json:"workers,omitempty"`
	Filter         string `json:"filter_chain,omitempty"`
	Smart          bool   `json:"smart,omitempty"`
	Variant        string `json:"engine_version,omitempty"`
	SerialBaseline bool   `json:"serial_baseline,omitempty"`
}

type record struct {
	job  Job
	done chan struct{}
}

// Manager owns every job record. Each job is advanced by its own goroutine;
// readers receive deep copies.
type Manager struct {
	deps   Deps
	opts   Options
	logger zerolog.Logger

	mu    sync.RWMutex
	jobs  map[string]*record
	slots chan struct{}
}

// NewManager creates a manager.
func NewManager(deps Deps, opts Options) (*Manager, error) {
	if deps.Prober == nil || deps.Engine == nil {
		return nil, fmt.Errorf("prober and engine are required")
	}
	if deps.Configurators == nil {
		deps.Configurators = autoconfig.NewRegistry()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCollector()
	}
	if opts.MaxConcurrentJobs < 1 {
		opts.MaxConcurrentJobs = 1
	}
	if opts.DefaultWorkers < 1 {
		opts.DefaultWorkers = runtime.NumCPU()
	}
	if opts.DefaultFilter == "" {
		opts.DefaultFilter = DefaultFilter
	}
	if opts.TempDir == "" {
		opts.TempDir = filepath.Join(os.TempDir(), "splitrender")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "outputs"
	}
	if opts.CompareSampleSeconds <= 0 {
		opts.CompareSampleSeconds = 8
	}

	return &Manager{
		deps:   deps,
		opts:   opts,
		logger: deps.Logger.With().Str("component", "jobs").Logger(),
		jobs:   make(map[string]*record),
		slots:  make(chan struct{}, opts.MaxConcurrentJobs),
	}, nil
}

// Metrics returns the collector the manager reports to.
func (m *Manager) Metrics() *metrics.Collector { return m.deps.Metrics }

// Configurators returns the strategy registry used for smart mode.
func (m *Manager) Configurators() *autoconfig.Registry { return m.deps.Configurators }

// Submit validates req, records a queued job and starts it in the
// background.
func (m *Manager) Submit(req SubmitRequest) (Job, error) {
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		return Job{}, fmt.Errorf("%w: input path is required", ErrInvalidRequest)
	}
	if info, err := os.Stat(req.Input); err != nil || info.IsDir() {
		return Job{}, fmt.Errorf("%w: input file not found: %s", ErrInvalidRequest, req.Input)
	}
	if req.Workers < 0 {
		return Job{}, fmt.Errorf("%w: workers cannot be negative", ErrInvalidRequest)
	}

	variant := ""
	if req.Smart {
		tag := req.Variant
		if tag == "" {
			tag = m.opts.DefaultVariant
		}
		v, _, err := m.deps.Configurators.Select(tag)
		if err != nil {
			return Job{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		variant = string(v)
	}

	if req.Workers == 0 {
		req.Workers = m.opts.DefaultWorkers
	}
	if strings.TrimSpace(req.Filter) == "" {
		req.Filter = m.opts.DefaultFilter
	}

	job := Job{
		ID:             uuid.New().String()[:8],
		Status:         StatusQueued,
		Phase:          PhaseQueued,
		Input:          req.Input,
		Workers:        req.Workers,
		FilterChain:    req.Filter,
		Smart:          req.Smart,
		EngineVariant:  variant,
		SerialBaseline: req.SerialBaseline,
		CreatedAt:      time.Now().UTC(),
		PhaseHistory:   []Phase{PhaseQueued},
	}
	rec := &record{job: job, done: make(chan struct{})}

	m.mu.Lock()
	m.jobs[job.ID] = rec
	m.mu.Unlock()

	m.deps.Metrics.JobQueued()
	m.logger.Info().Str("job_id", job.ID).Str("input", job.Input).Int("workers", job.Workers).Msg("job queued")

	go m.run(job.ID, req, rec.done)

	return job.clone(), nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.job.clone(), nil
}

// List returns snapshots of every job, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, rec := range m.jobs {
		out = append(out, rec.job.clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Delete forgets a job. A running job keeps running but is no longer
// visible.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.jobs, id)
	return nil
}

// Wait blocks until the job reaches a terminal status or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.RLock()
	rec, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	select {
	case <-rec.done:
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return rec.job.clone(), nil
}

func (m *Manager) run(id string, req SubmitRequest, done chan struct{}) {
	defer close(done)

	m.slots <- struct{}{}
	defer func() { <-m.slots }()

	m.deps.Metrics.JobStarted()
	log := m.logger.With().Str("job_id", id).Logger()

	frames, elapsed, err := m.execute(context.Background(), id, req, log)
	if err != nil {
		m.fail(id, err)
		m.deps.Metrics.JobFailed()
		log.Error().Err(err).Msg("job failed")
		return
	}
	m.deps.Metrics.JobSucceeded(frames, elapsed)
	log.Info().Float64("elapsed", elapsed).Msg("job completed")
}

// execute drives one job through its phases. The per-job work directory is
// removed on every exit path.
func (m *Manager) execute(ctx context.Context, id string, req SubmitRequest, log zerolog.Logger) (int64, float64, error) {
	workDir := filepath.Join(m.opts.TempDir, id)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return 0, 0, fmt.Errorf("failed to create job directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	m.advance(id, PhaseAnalyzing)

	meta, err := m.deps.Prober.Probe(ctx, req.Input)
	if err != nil {
		return 0, 0, err
	}

	workers, filter := req.Workers, req.Filter
	if req.Smart {
		_, strategy, err := m.deps.Configurators.Select(variantTag(req.Variant, m.opts.DefaultVariant))
		if err != nil {
			return 0, 0, err
		}
		decision, err := strategy.Configure(ctx, meta, req.Workers, req.Input)
		if err != nil {
			return 0, 0, fmt.Errorf("adaptive configuration failed: %w", err)
		}
		workers, filter = decision.Workers, decision.Filter
		m.update(id, func(j *Job) {
			j.Workers = workers
			j.FilterChain = filter
			j.SmartConfig = &decision
		})
		log.Info().Str("variant", string(decision.Variant)).Int("workers", workers).Str("filter", filter).Msg("adaptive configuration applied")
	}

	if req.SerialBaseline && m.deps.Baseline != nil {
		m.advance(id, PhaseBenchmarking)
		sample := filepath.Join(workDir, "serial_sample.mp4")
		projected, err := m.deps.Baseline.SampledBaseline(ctx, req.Input, sample, filter, m.opts.SerialSampleSeconds, meta.Duration)
		if err != nil {
			return 0, 0, err
		}
		m.update(id, func(j *Job) { j.ProjectedSerialSeconds = &projected })
	}

	output, err := filepath.Abs(filepath.Join(m.opts.OutputDir, fmt.Sprintf("output_%s.mp4", id)))
	if err != nil {
		return 0, 0, err
	}

	hooks := pipeline.Hooks{
		OnPhase: func(p pipeline.Phase) {
			switch p {
			case pipeline.PhaseParallel:
				m.advance(id, PhaseParallel)
			case pipeline.PhaseMerging:
				m.advance(id, PhaseMerging)
			}
		},
		OnProgress: func(completed, total int, _ models.SegmentResult) {
			m.setProgress(id, phaseProgress[PhaseParallel]+80*completed/total)
		},
	}

	res, err := m.deps.Engine.Run(ctx, pipeline.Request{
		Input:    req.Input,
		Output:   output,
		WorkDir:  filepath.Join(workDir, "segments"),
		Duration: meta.Duration,
		Workers:  workers,
		Filter:   filter,
	}, hooks)
	if err != nil {
		return 0, 0, err
	}

	var report *models.ComparisonReport
	if m.deps.Comparer != nil {
		r, err := m.deps.Comparer.Compare(ctx, req.Input, output, math.Min(m.opts.CompareSampleSeconds, meta.Duration))
		if err != nil {
			log.Warn().Err(err).Msg("comparison report failed")
		} else {
			report = &r
		}
	}

	m.complete(id, output, res.Seconds, report)
	return meta.FrameCount(), res.Seconds, nil
}

func variantTag(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}

// update applies fn to the live record, if the job still exists.
func (m *Manager) update(id string, fn func(j *Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.jobs[id]; ok {
		fn(&rec.job)
	}
}

// advance moves a job into phase and raises progress to that phase's floor.
// Backward or repeated transitions are ignored.
func (m *Manager) advance(id string, phase Phase) {
	m.update(id, func(j *Job) {
		if j.Status.Terminal() || !isValidTransition(j.Phase, phase) {
			m.logger.Warn().Str("job_id", id).Str("from", string(j.Phase)).Str("to", string(phase)).Msg("rejected phase transition")
			return
		}
		if j.Status == StatusQueued {
			now := time.Now().UTC()
			j.Status = StatusProcessing
			j.StartedAt = &now
		}
		j.Phase = phase
		j.PhaseHistory = append(j.PhaseHistory, phase)
		raiseProgress(j, phaseProgress[phase])
	})
}

func (m *Manager) setProgress(id string, p int) {
	m.update(id, func(j *Job) {
		if !j.Status.Terminal() {
			raiseProgress(j, p)
		}
	})
}

// raiseProgress never lowers progress and keeps it below 100 until the job
// completes.
func raiseProgress(j *Job, p int) {
	if p >= 100 && j.Status != StatusCompleted {
		p = 99
	}
	if p > j.Progress {
		j.Progress = p
	}
}

func (m *Manager) complete(id, output string, elapsed float64, report *models.ComparisonReport) {
	m.update(id, func(j *Job) {
		now := time.Now().UTC()
		j.Status = StatusCompleted
		j.Phase = PhaseCompleted
		j.PhaseHistory = append(j.PhaseHistory, PhaseCompleted)
		j.Progress = 100
		j.OutputPath = output
		j.ElapsedSeconds = elapsed
		j.ComparisonReport = report
		j.FinishedAt = &now
	})
}

// fail records err verbatim and freezes progress. The phase is forced to
// the terminal marker regardless of where the job stopped.
func (m *Manager) fail(id string, err error) {
	m.update(id, func(j *Job) {
		now := time.Now().UTC()
		if j.StartedAt == nil {
			j.StartedAt = &now
		}
		j.Status = StatusFailed
		j.Phase = PhaseCompleted
		j.PhaseHistory = append(j.PhaseHistory, PhaseCompleted)
		j.Error = err.Error()
		j.FinishedAt = &now
	})
}

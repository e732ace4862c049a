package autoconfig

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"splitrender/ffmpeg"
	"splitrender/internal/timeutil"
	"splitrender/models"
)

// Motion thresholds on mean YDIF (average absolute luma difference between
// consecutive frames, 0-255).
const (
	HighMotionYDIF = 10.0
	StaticYDIF     = 2.0

	DefaultMotionSampleSeconds = 4.0
)

const (
	denoiseFilter = "hqdn3d=1.5:1.5:6:6"
	staticFilter  = "unsharp=3:3:0.4:3:3:0.2"
)

// ContentStrategy refines the resolution decision using a motion score
// sampled from the middle of the source.
type ContentStrategy struct {
	base          *ResolutionStrategy
	runner        ffmpeg.Runner
	bin           string
	sampleSeconds float64
	parser        *ffmpeg.StatsParser
	logger        zerolog.Logger
}

// NewContentStrategy creates the content-aware strategy. A non-positive
// sampleSeconds uses DefaultMotionSampleSeconds.
func NewContentStrategy(runner ffmpeg.Runner, bin string, sampleSeconds float64, logger zerolog.Logger) *ContentStrategy {
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	if bin == "" {
		bin = "ffmpeg"
	}
	if sampleSeconds <= 0 {
		sampleSeconds = DefaultMotionSampleSeconds
	}
	return &ContentStrategy{
		base:          NewResolutionStrategy(),
		runner:        runner,
		bin:           bin,
		sampleSeconds: sampleSeconds,
		parser:        ffmpeg.NewStatsParser(),
		logger:        logger.With().Str("component", "autoconfig").Logger(),
	}
}

// Configure starts from the resolution decision. If the motion sample
// cannot be taken the resolution decision is returned unchanged.
func (c *ContentStrategy) Configure(ctx context.Context, meta models.MediaMetadata, requested int, input string) (Decision, error) {
	d, err := c.base.Configure(ctx, meta, requested, input)
	if err != nil {
		return Decision{}, err
	}
	d.Variant = VariantContentAware

	score, err := c.MotionScore(ctx, input, meta.Duration)
	if err != nil {
		c.logger.Warn().Err(err).Str("input", input).Msg("motion sampling failed, keeping resolution defaults")
		d.Reason += ", motion sample unavailable"
		return d, nil
	}
	d.MotionScore = &score

	switch {
	case score >= HighMotionYDIF:
		d.Filter = denoiseFilter + "," + d.Filter
		d.Reason += fmt.Sprintf(", high motion (ydif %.1f): temporal denoise added", score)
	case score <= StaticYDIF:
		d.Filter = staticFilter
		d.Reason += fmt.Sprintf(", near-static content (ydif %.1f): light sharpen", score)
	default:
		d.Reason += fmt.Sprintf(", moderate motion (ydif %.1f)", score)
	}

	c.logger.Debug().
		Float64("motion", score).
		Str("filter", d.Filter).
		Int("workers", d.Workers).
		Msg("content-aware decision")

	return d, nil
}

// MotionScore returns the mean YDIF over a window centred on the middle of
// the source.
func (c *ContentStrategy) MotionScore(ctx context.Context, input string, duration float64) (float64, error) {
	window := math.Min(c.sampleSeconds, duration)
	start := math.Max(0, duration/2-window/2)

	args := []string{
		"-hide_banner",
		"-ss", timeutil.SecondsArg(start),
		"-i", input,
		"-t", timeutil.SecondsArg(window),
		"-vf", "signalstats,metadata=print:key=lavfi.signalstats.YDIF",
		"-an",
		"-f", "null",
		"-",
	}

	res, err := c.runner.Run(ctx, c.bin, args...)
	if err != nil {
		return 0, err
	}

	mean, count := c.parser.MeanYDIF(res.Stderr + "\n" + res.Stdout)
	if count == 0 {
		return 0, fmt.Errorf("no signalstats samples in ffmpeg output")
	}
	return mean, nil
}

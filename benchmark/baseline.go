// Package benchmark measures serial and parallel encode times and derives
// Amdahl's-law estimates from them.
package benchmark

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"splitrender/command/video"
	"splitrender/ffmpeg"
	"splitrender/pipeline"
)

// Baseline runs single-process reference encodes with the same settings
// used for segments.
type Baseline struct {
	runner   ffmpeg.Runner
	settings pipeline.EncodeSettings
	logger   zerolog.Logger
}

// NewBaseline creates a baseline runner. A nil runner uses ffmpeg.ExecRunner.
func NewBaseline(runner ffmpeg.Runner, settings pipeline.EncodeSettings, logger zerolog.Logger) *Baseline {
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	return &Baseline{
		runner:   runner,
		settings: settings,
		logger:   logger.With().Str("component", "baseline").Logger(),
	}
}

// SerialBaseline encodes the whole input once and returns the elapsed
// wall-clock seconds.
func (b *Baseline) SerialBaseline(ctx context.Context, input, output, filter string) (float64, error) {
	cmd := b.settings.Apply(video.NewFullBuilder(input, output)).SetFilterChain(filter)

	b.logger.Info().Str("input", input).Msg("running serial baseline")
	start := time.Now()
	if err := cmd.Run(ctx, b.runner); err != nil {
		return 0, fmt.Errorf("serial baseline failed: %w", err)
	}
	elapsed := time.Since(start).Seconds()
	b.logger.Info().Float64("elapsed", elapsed).Msg("serial baseline finished")
	return elapsed, nil
}

// SampledBaseline encodes the first min(sampleSeconds, totalDuration)
// seconds and projects the full-duration serial time linearly:
//
//	projected = totalDuration / sample * elapsed
//
// A non-positive sampleSeconds encodes the whole file.
func (b *Baseline) SampledBaseline(ctx context.Context, input, output, filter string, sampleSeconds, totalDuration float64) (float64, error) {
	if totalDuration <= 0 {
		return 0, fmt.Errorf("invalid duration: %.3f seconds", totalDuration)
	}
	sample := totalDuration
	if sampleSeconds > 0 {
		sample = math.Min(sampleSeconds, totalDuration)
	}

	cmd := b.settings.Apply(video.NewFullBuilder(input, output)).
		SetRange(0, sample).
		SetFilterChain(filter)

	start := time.Now()
	if err := cmd.Run(ctx, b.runner); err != nil {
		return 0, fmt.Errorf("sampled baseline failed: %w", err)
	}
	elapsed := time.Since(start).Seconds()
	projected := totalDuration / sample * elapsed

	b.logger.Info().
		Float64("sample", sample).
		Float64("elapsed", elapsed).
		Float64("projected", projected).
		Msg("sampled serial baseline finished")

	return projected, nil
}

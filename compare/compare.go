// Package compare measures how a rendered output differs from its source.
package compare

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"

	"splitrender/ffmpeg"
	"splitrender/internal/fsutil"
	"splitrender/models"
)

// DefaultSampleSeconds is the comparison window when none is given.
const DefaultSampleSeconds = 8.0

// Comparer computes PSNR and SSIM on the first seconds of two files.
type Comparer struct {
	runner ffmpeg.Runner
	bin    string
	parser *ffmpeg.StatsParser
	logger zerolog.Logger
}

// NewComparer creates a comparer. A nil runner uses ffmpeg.ExecRunner.
func NewComparer(runner ffmpeg.Runner, bin string, logger zerolog.Logger) *Comparer {
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Comparer{
		runner: runner,
		bin:    bin,
		parser: ffmpeg.NewStatsParser(),
		logger: logger.With().Str("component", "compare").Logger(),
	}
}

// Compare builds a report for input vs output over sampleSeconds. A metric
// ffmpeg cannot compute is left nil; only missing files are errors.
func (c *Comparer) Compare(ctx context.Context, input, output string, sampleSeconds float64) (models.ComparisonReport, error) {
	for _, p := range []string{input, output} {
		if _, err := os.Stat(p); err != nil {
			return models.ComparisonReport{}, fmt.Errorf("comparison input missing: %w", err)
		}
	}
	if sampleSeconds <= 0 {
		sampleSeconds = DefaultSampleSeconds
	}

	inMB := fsutil.SizeMB(input)
	outMB := fsutil.SizeMB(output)
	sizePct := 0.0
	if inMB > 0 {
		sizePct = (outMB - inMB) / inMB * 100
	}

	report := models.ComparisonReport{
		SampleSeconds: round(sampleSeconds, 2),
		InputSizeMB:   round(inMB, 2),
		OutputSizeMB:  round(outMB, 2),
		SizeChangePct: round(sizePct, 2),
		GeneratedAt:   time.Now().UTC(),
	}

	if stderr, err := c.run(ctx, input, output, sampleSeconds, "psnr"); err == nil {
		if v, ok := c.parser.ParsePSNR(stderr); ok {
			v = round(v, 3)
			report.PSNRAvg = &v
		}
	} else {
		c.logger.Warn().Err(err).Msg("psnr comparison failed")
	}

	if stderr, err := c.run(ctx, input, output, sampleSeconds, "ssim"); err == nil {
		if v, ok := c.parser.ParseSSIM(stderr); ok {
			v = round(v, 5)
			report.SSIMAll = &v
		}
	} else {
		c.logger.Warn().Err(err).Msg("ssim comparison failed")
	}

	report.Summary = Summary(report.PSNRAvg, report.SSIMAll, sizePct)
	return report, nil
}

func (c *Comparer) run(ctx context.Context, input, output string, sample float64, metric string) (string, error) {
	window := fmt.Sprintf("%.2f", sample)
	args := []string{
		"-hide_banner", "-v", "info",
		"-t", window, "-i", input,
		"-t", window, "-i", output,
		"-lavfi", "[0:v][1:v]" + metric,
		"-f", "null", "-",
	}
	res, err := c.runner.Run(ctx, c.bin, args...)
	if err != nil {
		return "", err
	}
	return res.Stderr, nil
}

// Summary renders the one-line verdict shown with a report.
func Summary(psnr, ssim *float64, sizeChangePct float64) string {
	quality := "unknown"
	if psnr != nil && ssim != nil {
		switch {
		case *psnr >= 40 && *ssim >= 0.99:
			quality = "very high"
		case *psnr >= 35 && *ssim >= 0.97:
			quality = "high"
		case *psnr >= 30 && *ssim >= 0.94:
			quality = "moderate"
		default:
			quality = "noticeable changes"
		}
	}

	sizeNote := "roughly unchanged"
	switch {
	case sizeChangePct <= -5:
		sizeNote = "smaller output size"
	case sizeChangePct >= 5:
		sizeNote = "larger output size"
	}

	return fmt.Sprintf("Visual similarity is %s. File size is %s (%+.1f%%).", quality, sizeNote, sizeChangePct)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

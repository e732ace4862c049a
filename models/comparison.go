package models

import "time"

// ComparisonReport summarizes how a rendered output differs from its source.
//
// PSNRAvg and SSIMAll are nil when ffmpeg could not compute the metric.
type ComparisonReport struct {
	SampleSeconds float64   `json:"sample_seconds"`
	InputSizeMB   float64   `json:"input_size_mb"`
	OutputSizeMB  float64   `json:"output_size_mb"`
	SizeChangePct float64   `json:"size_change_pct"`
	PSNRAvg       *float64  `json:"psnr_avg,omitempty"`
	SSIMAll       *float64  `json:"ssim_all,omitempty"`
	Summary       string    `json:"summary"`
	GeneratedAt   time.Time `json:"generated_at"`
}

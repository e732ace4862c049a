// Package models provides core data structures for the rendering engine.
package models

import (
	"fmt"
	"strings"
)

// MediaMetadata describes a probed source file.
//
// Values are created once per pipeline run by the probe and are never
// mutated afterwards. Duration and FrameRate are kept as float64 so
// fractional seconds and NTSC rates (e.g. 29.97) survive intact.
type MediaMetadata struct {
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"fps"`
	Codec     string  `json:"codec"`
	HasAudio  bool    `json:"has_audio"`
}

// Validate checks that the metadata is usable for planning.
//
// Returns an error if:
//   - Duration, FrameRate, Width or Height is not positive
//   - Codec is empty or whitespace-only
func (m MediaMetadata) Validate() error {
	var problems []string

	if m.Duration <= 0 {
		problems = append(problems, "duration must be greater than 0")
	}
	if m.Width <= 0 || m.Height <= 0 {
		problems = append(problems, "width and height must be greater than 0")
	}
	if m.FrameRate <= 0 {
		problems = append(problems, "frame rate must be greater than 0")
	}
	if strings.TrimSpace(m.Codec) == "" {
		problems = append(problems, "codec cannot be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid media metadata: %s", strings.Join(problems, ", "))
	}
	return nil
}

// FrameCount estimates the number of frames in the source.
func (m MediaMetadata) FrameCount() int64 {
	return int64(m.Duration * m.FrameRate)
}

// Resolution returns the frame size as "WIDTHxHEIGHT".
func (m MediaMetadata) Resolution() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

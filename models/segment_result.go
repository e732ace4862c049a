package models

import (
	"fmt"
	"strings"
)

// SegmentResult is the outcome of encoding a single segment.
//
// Successful results carry no error text; failed results always carry a
// diagnostic. Elapsed is wall-clock seconds measured around the encoder
// process.
type SegmentResult struct {
	ID      int     `json:"id"`
	Success bool    `json:"success"`
	Elapsed float64 `json:"elapsed"`
	Error   string  `json:"error,omitempty"`
}

// NewSegmentSuccess creates a successful SegmentResult.
func NewSegmentSuccess(id int, elapsed float64) SegmentResult {
	return SegmentResult{ID: id, Success: true, Elapsed: elapsed}
}

// NewSegmentFailure creates a failed SegmentResult.
//
// The diagnostic must not be empty; a placeholder is substituted so that a
// failed result is never silent.
func NewSegmentFailure(id int, elapsed float64, diagnostic string) SegmentResult {
	if strings.TrimSpace(diagnostic) == "" {
		diagnostic = "encoder failed without diagnostic output"
	}
	return SegmentResult{ID: id, Success: false, Elapsed: elapsed, Error: diagnostic}
}

// Validate checks if the SegmentResult has consistent state.
//
// Returns an error if:
//   - Success is true but Error is set
//   - Success is false but Error is empty
//   - Elapsed is negative
func (r SegmentResult) Validate() error {
	if r.Success && r.Error != "" {
		return fmt.Errorf("inconsistent state: Success is true but Error is set")
	}
	if !r.Success && strings.TrimSpace(r.Error) == "" {
		return fmt.Errorf("failed result must have an error")
	}
	if r.Elapsed < 0 {
		return fmt.Errorf("elapsed cannot be negative")
	}
	return nil
}

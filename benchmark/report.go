package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"splitrender/models"
)

// Report is the exported benchmark data set.
type Report struct {
	Metadata      *models.MediaMetadata `json:"metadata"`
	SerialSeconds *float64              `json:"serial_time"`
	Sweep         map[int]Entry         `json:"sweep_results"`
	Amdahl        *Amdahl               `json:"amdahl,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}

// NewReport assembles a report. When a serial time is present and the
// max-worker pass succeeded, Amdahl estimates are attached.
func NewReport(meta *models.MediaMetadata, serial *float64, entries []Entry) Report {
	r := Report{
		Metadata:      meta,
		SerialSeconds: serial,
		Sweep:         make(map[int]Entry, len(entries)),
		Timestamp:     time.Now().UTC(),
	}

	best := -1
	for _, e := range entries {
		r.Sweep[e.Workers] = e
		if e.Workers > best {
			best = e.Workers
		}
	}

	if serial == nil || best < 1 {
		return r
	}
	if e := r.Sweep[best]; e.Success && e.Seconds != nil {
		if a, err := Analyze(*serial, *e.Seconds, best); err == nil {
			r.Amdahl = &a
		}
	}
	return r
}

// MaxEntry returns the entry with the largest worker count.
func (r Report) MaxEntry() (Entry, bool) {
	best := -1
	for n := range r.Sweep {
		if n > best {
			best = n
		}
	}
	e, ok := r.Sweep[best]
	return e, ok
}

// Export writes the report as indented JSON.
func Export(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal benchmark report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write benchmark report: %w", err)
	}
	return nil
}

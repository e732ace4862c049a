package benchmark

import (
	"fmt"
	"math"
)

// Amdahl summarizes achieved speedup against Amdahl's law.
type Amdahl struct {
	Workers int     `json:"workers"`
	Speedup float64 `json:"speedup"`

	// Efficiency is Speedup / Workers.
	Efficiency float64 `json:"efficiency"`

	// SerialFraction is the f that solves Speedup = 1/(f + (1-f)/Workers).
	SerialFraction float64 `json:"serial_fraction"`
	TheoreticalMax float64 `json:"theoretical_max"`

	// OfTheoretical is Speedup / TheoreticalMax.
	OfTheoretical float64 `json:"of_theoretical"`

	// Solved is false when the speedup met or exceeded the worker count, in
	// which case no serial fraction is derived.
	Solved bool `json:"solved"`
}

// Analyze derives Amdahl estimates from a serial time and the time achieved
// with workers processes.
func Analyze(serial, parallel float64, workers int) (Amdahl, error) {
	if serial <= 0 || parallel <= 0 {
		return Amdahl{}, fmt.Errorf("times must be positive (serial=%.3f, parallel=%.3f)", serial, parallel)
	}
	if workers < 1 {
		return Amdahl{}, fmt.Errorf("worker count must be at least 1, got %d", workers)
	}

	n := float64(workers)
	speedup := serial / parallel
	a := Amdahl{
		Workers:        workers,
		Speedup:        speedup,
		Efficiency:     speedup / n,
		TheoreticalMax: n,
	}

	if speedup < n && workers > 1 {
		f := (1 - speedup/n) / (1 - 1/n)
		f = math.Max(0, math.Min(1, f))

		max := n
		if f > 0 {
			max = 1 / f
		}
		a.SerialFraction = f
		a.TheoreticalMax = math.Min(max, 2*n)
		a.Solved = true
	}

	a.OfTheoretical = speedup / a.TheoreticalMax
	return a, nil
}

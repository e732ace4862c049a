package autoconfig

import (
	"context"
	"fmt"

	"splitrender/chunker"
	"splitrender/models"
)

const (
	// MinSegmentSeconds is the shortest segment the worker cap allows.
	// Shorter segments spend more time in encoder startup than encoding.
	MinSegmentSeconds = 2.0

	// SDMaxWorkers caps parallelism for small frames.
	SDMaxWorkers = 4
)

// Resolution classes by frame height.
const (
	ClassUHD = "uhd"
	ClassFHD = "fhd"
	ClassHD  = "hd"
	ClassSD  = "sd"
)

// classFilters sharpen less as frames get larger.
var classFilters = map[string]string{
	ClassUHD: "unsharp=3:3:0.5:3:3:0.3",
	ClassFHD: "unsharp=5:5:1.0:5:5:0.4",
	ClassHD:  "unsharp=5:5:1.5:5:5:0.5",
	ClassSD:  "unsharp=7:7:1.8:7:7:0.6",
}

// ResolutionClass buckets a frame height.
func ResolutionClass(height int) string {
	switch {
	case height >= 2160:
		return ClassUHD
	case height >= 1080:
		return ClassFHD
	case height >= 720:
		return ClassHD
	default:
		return ClassSD
	}
}

// ClassFilter returns the default filter chain for a resolution class.
func ClassFilter(class string) string {
	if f, ok := classFilters[class]; ok {
		return f
	}
	return classFilters[ClassHD]
}

// ResolutionStrategy derives workers and filter from frame size and duration.
type ResolutionStrategy struct{}

// NewResolutionStrategy creates the baseline strategy.
func NewResolutionStrategy() *ResolutionStrategy { return &ResolutionStrategy{} }

// Configure never inspects frame content.
func (*ResolutionStrategy) Configure(ctx context.Context, meta models.MediaMetadata, requested int, input string) (Decision, error) {
	if err := meta.Validate(); err != nil {
		return Decision{}, err
	}

	workers := resolveRequested(requested)
	class := ResolutionClass(meta.Height)
	reason := fmt.Sprintf("%s source (%s)", class, meta.Resolution())

	if class == ClassSD && workers > SDMaxWorkers {
		workers = SDMaxWorkers
		reason += fmt.Sprintf(", workers capped at %d for small frames", SDMaxWorkers)
	}

	if capped := capForDuration(workers, meta.Duration); capped < workers {
		workers = capped
		reason += fmt.Sprintf(", workers capped at %d to keep segments >= %.0fs", capped, MinSegmentSeconds)
	}

	return Decision{
		Variant:         VariantResolution,
		Workers:         workers,
		Filter:          ClassFilter(class),
		ResolutionClass: class,
		Reason:          reason,
	}, nil
}

// capForDuration lowers workers until every planned segment is at least
// MinSegmentSeconds long. It never returns less than 1.
func capForDuration(workers int, duration float64) int {
	for workers > 1 && duration/float64(chunker.SegmentCount(workers)) < MinSegmentSeconds {
		workers--
	}
	return workers
}

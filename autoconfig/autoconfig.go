// Package autoconfig proposes a worker count and filter chain for a source
// based on its probed metadata.
package autoconfig

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"splitrender/models"
)

// Variant identifies a configuration strategy.
type Variant string

const (
	VariantResolution   Variant = "resolution"
	VariantContentAware Variant = "content-aware"
)

var (
	// ErrUnknownVariant is returned for tags outside the supported set.
	ErrUnknownVariant = errors.New("unknown configurator variant")
	// ErrVariantUnavailable is returned for a supported variant that is not
	// registered in this process.
	ErrVariantUnavailable = errors.New("configurator variant unavailable")
)

// ParseVariant maps a tag, including the short aliases "v1" and "v2", to a
// Variant. Empty input selects the resolution variant.
func ParseVariant(tag string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "v1", string(VariantResolution):
		return VariantResolution, nil
	case "v2", string(VariantContentAware):
		return VariantContentAware, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, tag)
	}
}

// Decision is a proposed configuration and the reasoning behind it.
type Decision struct {
	Variant         Variant  `json:"variant"`
	Workers         int      `json:"workers"`
	Filter          string   `json:"filter"`
	ResolutionClass string   `json:"resolution_class"`
	MotionScore     *float64 `json:"motion_score,omitempty"`
	Reason          string   `json:"reason"`
}

// Strategy derives a Decision. requested is the caller's worker count; a
// value below 1 means "use every CPU".
type Strategy interface {
	Configure(ctx context.Context, meta models.MediaMetadata, requested int, input string) (Decision, error)
}

// Registry holds the strategies available in this process.
type Registry struct {
	mu         sync.RWMutex
	strategies map[Variant]Strategy
}

// NewRegistry creates a registry with the resolution variant registered.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[Variant]Strategy)}
	r.strategies[VariantResolution] = NewResolutionStrategy()
	return r
}

// Register adds or replaces the strategy for v.
func (r *Registry) Register(v Variant, s Strategy) error {
	parsed, err := ParseVariant(string(v))
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[parsed] = s
	return nil
}

// Select resolves tag to a registered strategy. A known variant that is not
// registered is an error; there is no fallback to another variant.
func (r *Registry) Select(tag string) (Variant, Strategy, error) {
	v, err := ParseVariant(tag)
	if err != nil {
		return "", nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[v]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrVariantUnavailable, v)
	}
	return v, s, nil
}

// Available lists the registered variants in sorted order.
func (r *Registry) Available() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Variant, 0, len(r.strategies))
	for v := range r.strategies {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func resolveRequested(requested int) int {
	if requested < 1 {
		return runtime.NumCPU()
	}
	return requested
}

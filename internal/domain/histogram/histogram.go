// Package histogram bins layer energies for plotting by an external viewer.
package histogram

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the bin count used when none is requested.
const DefaultBins = 50

// MaxBins caps request-supplied bin counts.
const MaxBins = 10_000

// Sentinel errors.
var (
	ErrNoValues     = errors.New("histogram: no values")
	ErrInvalidBins  = errors.New("histogram: invalid bin count")
	ErrInvalidValue = errors.New("histogram: value is not finite")
)

// Histogram holds equal-width bins over the value range. Edges has one more
// element than Counts; the last bin includes its right edge.
type Histogram struct {
	Edges   []float64 `json:"edges"`
	Counts  []float64 `json:"counts"`
	Density []float64 `json:"density"` // counts normalised so the area sums to 1
	Total   int       `json:"total"`
}

// Compute bins values into the given number of equal-width bins. When all
// values are equal the range is widened by 0.5 on each side.
func Compute(values []float64, bins int) (Histogram, error) {
	if len(values) == 0 {
		return Histogram{}, ErrNoValues
	}
	if bins < 1 || bins > MaxBins {
		return Histogram{}, fmt.Errorf("%w: %d", ErrInvalidBins, bins)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Histogram{}, fmt.Errorf("%w: %v", ErrInvalidValue, v)
		}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	dividers := slices.Clone(edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	total := float64(len(sorted))
	density := make([]float64, bins)
	for i, c := range counts {
		if width := edges[i+1] - edges[i]; width > 0 {
			density[i] = c / (total * width)
		}
	}

	return Histogram{
		Edges:   edges,
		Counts:  counts,
		Density: density,
		Total:   len(sorted),
	}, nil
}

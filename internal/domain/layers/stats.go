package layers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics summarises the energies of one layer.
type Statistics struct {
	Count    int
	Mean     float64
	Variance float64 // population variance, divisor Count
	StdDev   float64
	StdErr   float64
	Min      float64
	Max      float64
}

// Compute returns population statistics for energies. An empty slice is an
// invariant violation: every layer is created with at least one energy.
func Compute(energies []float64) (Statistics, error) {
	n := len(energies)
	if n == 0 {
		return Statistics{}, fmt.Errorf("%w: statistics over empty energies", ErrInternalInvariant)
	}

	if n == 1 {
		return Statistics{Count: 1, Mean: energies[0], Min: energies[0], Max: energies[0]}, nil
	}

	mean, variance := stat.PopMeanVariance(energies, nil)
	variance = math.Max(variance, 0) // rounding can leave a tiny negative value
	std := math.Sqrt(variance)
	return Statistics{
		Count:    n,
		Mean:     mean,
		Variance: variance,
		StdDev:   std,
		StdErr:   stat.StdErr(std, float64(n)),
		Min:      floats.Min(energies),
		Max:      floats.Max(energies),
	}, nil
}

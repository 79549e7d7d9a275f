// Package layers groups depth-sorted collision records into material layers
// and computes per-layer energy statistics.
//
// A layer is a maximal run of consecutive records sharing an atom. Runs that
// cover no depth (DepthMin == DepthMax) are discarded and the survivors are
// renumbered in order.
package layers

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/pkg/metrics"
)

// DefaultIndexBase numbers the first surviving layer 0.
const DefaultIndexBase = 0

// Option applies a configuration option to Aggregate.
type Option func(*options)

type options struct {
	indexBase int
}

// WithIndexBase sets the index of the first surviving layer. Only 0 and 1 are accepted.
func WithIndexBase(base int) Option {
	return func(o *options) {
		o.indexBase = base
	}
}

// Run is a provisional layer: a contiguous run of records with one atom,
// before degeneracy filtering.
type Run struct {
	Index    int // position in the provisional sequence
	Atom     string
	DepthMin float64
	DepthMax float64
	Energies []float64
}

// Degenerate reports whether the run spans zero depth.
func (r Run) Degenerate() bool {
	return r.DepthMax == r.DepthMin
}

// Partition splits records into provisional runs. A run ends whenever the
// atom changes; a later run of an earlier atom is never merged back.
func Partition(records []model.Record) []Run {
	var runs []Run
	for _, rec := range records {
		if len(runs) == 0 || runs[len(runs)-1].Atom != rec.Atom {
			runs = append(runs, Run{
				Index:    len(runs),
				Atom:     rec.Atom,
				DepthMin: math.Inf(1),
				DepthMax: math.Inf(-1),
			})
		}
		cur := &runs[len(runs)-1]
		cur.DepthMin = math.Min(cur.DepthMin, rec.Depth)
		cur.DepthMax = math.Max(cur.DepthMax, rec.Depth)
		cur.Energies = append(cur.Energies, rec.Energy)
	}
	return runs
}

// Aggregate folds depth-sorted records into layers ordered by their final index.
func Aggregate(ctx context.Context, records []model.Record, opts ...Option) ([]model.Layer, error) {
	o := options{indexBase: DefaultIndexBase}
	for _, opt := range opts {
		opt(&o)
	}
	if o.indexBase != 0 && o.indexBase != 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndexBase, o.indexBase)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate cancelled: %w", err)
	}

	runs := Partition(records)

	kept := make([]Run, 0, len(runs))
	for _, r := range runs {
		if !r.Degenerate() {
			kept = append(kept, r)
		}
	}

	layers := make([]model.Layer, 0, len(kept))
	for i, r := range kept {
		st, err := Compute(r.Energies)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", r.Index, r.Atom, err)
		}
		layers = append(layers, model.Layer{
			Index:     i + o.indexBase,
			Atom:      r.Atom,
			Energies:  r.Energies,
			DepthMin:  r.DepthMin,
			DepthMax:  r.DepthMax,
			Count:     st.Count,
			Mean:      st.Mean,
			StdDev:    st.StdDev,
			StdErr:    st.StdErr,
			MinEnergy: st.Min,
			MaxEnergy: st.Max,
		})
	}

	slices.SortStableFunc(layers, func(a, b model.Layer) int {
		return cmp.Compare(a.Index, b.Index)
	})
	metrics.RecordLayers(len(layers), len(runs)-len(kept))
	return layers, nil
}

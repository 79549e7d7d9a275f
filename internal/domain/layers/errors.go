package layers

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrInternalInvariant signals an aggregation bug, e.g. statistics over no energies.
	ErrInternalInvariant = errors.New("internal invariant violated")
	ErrInvalidIndexBase  = errors.New("invalid layer index base")
)

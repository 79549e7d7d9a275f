// Package model contains domain models passed between layers.
package model

// Record is one collision event read from a collision log.
type Record struct {
	Ion                string  // ion identifier as written in the log
	Energy             float64 // ion energy in MeV
	Depth              float64 // position along the transport axis
	Y                  float64
	Z                  float64
	StoppingEnergy     float64
	Atom               string // struck target species, whitespace trimmed
	RecoilEnergy       float64
	TargetDisplacement float64
}

// Layer is a contiguous run of records against the same atom, with the
// energy statistics derived from it.
type Layer struct {
	Index     int       `json:"layer"`
	Atom      string    `json:"atom"`
	Energies  []float64 `json:"energies"`
	DepthMin  float64   `json:"depth_min"`
	DepthMax  float64   `json:"depth_max"`
	Count     int       `json:"count"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"std_dev"`
	StdErr    float64   `json:"std_err"`
	MinEnergy float64   `json:"min_energy"`
	MaxEnergy float64   `json:"max_energy"`
}

// Thickness returns the depth span covered by the layer.
func (l Layer) Thickness() float64 {
	return l.DepthMax - l.DepthMin
}

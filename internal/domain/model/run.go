package model

import "time"

// Run is the outcome of processing one collision log.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Records   int       `json:"records"`
	Layers    []Layer   `json:"layers"`
}

// Layer returns the layer with the given final index.
func (r Run) Layer(index int) (Layer, bool) {
	for _, l := range r.Layers {
		if l.Index == index {
			return l, true
		}
	}
	return Layer{}, false
}

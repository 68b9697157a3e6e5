package fill

import "math"

// Reconstructor computes venue occupancy from the recorded node trajectories.
type Reconstructor struct {
	nodes []*Node
}

// NewReconstructor wraps the completed nodes of a run.
func NewReconstructor(nodes []*Node) *Reconstructor {
	return &Reconstructor{nodes: nodes}
}

// At returns the total occupancy at time t: full capacity for every node
// saturated by t, and the interpolated fill of every node still filling.
func (r *Reconstructor) At(t float64) float64 {
	var total float64
	for _, n := range r.nodes {
		total += n.AmountAt(t)
	}
	return total
}

// Series produces one occupancy value per inflow sample, taken at the end of
// the sample's step. Positive steps read the node trajectories; non-positive
// steps subtract the outflow from the previous value, floored at zero.
func (r *Reconstructor) Series(inflow []float64, step float64) []float64 {
	out := make([]float64, len(inflow))
	var prev float64
	for i, v := range inflow {
		var db float64
		if v > 0 {
			db = r.At(float64(i+1) * step)
		} else {
			db = math.Max(prev+v*step, 0)
		}
		out[i] = db
		prev = db
	}
	return out
}

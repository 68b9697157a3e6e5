package fill

import "github.com/gyaneshwarpardhi/dbc/internal/venue"

// Sample is one recorded fill segment start: from At onward the node
// received Rate until the next sample's At. The final sample of a completed
// node is a terminal marker with Rate 0.
type Sample struct {
	At   float64 `json:"at"`
	Rate float64 `json:"rate"`
}

// Node is the simulation state of one cell. It is mutated only by the
// Simulator that owns it and is frozen once it enters the Ledger.
type Node struct {
	cell     *venue.Cell
	capacity float64
	filled   float64

	completed   bool
	completedAt float64

	samples []Sample
	fillEnd float64 // instant the last fill segment stopped
}

func newNode(c *venue.Cell) *Node {
	return &Node{cell: c, capacity: c.Capacity}
}

// newEntranceNode returns an always-open gate: saturated at time 0 and
// holding nothing, so it never contributes to the occupancy total.
func newEntranceNode(c *venue.Cell) *Node {
	n := &Node{cell: c}
	n.complete(0)
	n.seal()
	return n
}

func (n *Node) ID() string        { return n.cell.ID }
func (n *Node) Cell() *venue.Cell { return n.cell }
func (n *Node) Capacity() float64 { return n.capacity }
func (n *Node) Filled() float64   { return n.filled }

// Remaining returns capacity − filled.
func (n *Node) Remaining() float64 { return n.capacity - n.filled }

// Saturated reports whether the node holds its full capacity.
func (n *Node) Saturated() bool { return n.filled >= n.capacity }

// CompletedAt returns the completion time, if set.
func (n *Node) CompletedAt() (float64, bool) { return n.completedAt, n.completed }

// Samples returns a copy of the recorded samples.
func (n *Node) Samples() []Sample {
	out := make([]Sample, len(n.samples))
	copy(out, n.samples)
	return out
}

// record opens a fill segment at t. A gap since the previous segment is
// closed with a zero-rate sample so timestamps stay strictly increasing and
// idle time is never interpolated as fill.
func (n *Node) record(t, rate float64) {
	if len(n.samples) > 0 && t > n.fillEnd {
		n.samples = append(n.samples, Sample{At: n.fillEnd, Rate: 0})
	}
	n.samples = append(n.samples, Sample{At: t, Rate: rate})
}

func (n *Node) complete(at float64) {
	n.completed = true
	n.completedAt = at
}

// seal appends the terminal sample at the completion time.
func (n *Node) seal() {
	if !n.completed {
		return
	}
	if len(n.samples) > 0 {
		last := n.samples[len(n.samples)-1].At
		if n.fillEnd > last && n.fillEnd < n.completedAt {
			n.samples = append(n.samples, Sample{At: n.fillEnd, Rate: 0})
			last = n.fillEnd
		}
		if n.completedAt <= last {
			return
		}
	}
	n.samples = append(n.samples, Sample{At: n.completedAt, Rate: 0})
}

// AmountAt returns how much the node held at time t.
func (n *Node) AmountAt(t float64) float64 {
	if n.completed && t >= n.completedAt {
		if n.Saturated() {
			return n.capacity
		}
		return n.filled
	}
	var sum float64
	for k, cur := range n.samples {
		if t <= cur.At {
			break
		}
		end := n.fillEnd // an unsealed node's last segment is still open
		if k+1 < len(n.samples) {
			end = n.samples[k+1].At
		}
		if end <= cur.At {
			continue
		}
		if t >= end {
			sum += cur.Rate * (end - cur.At)
			continue
		}
		// Linear share of the segment containing t.
		sum += cur.Rate * (t - cur.At)
		break
	}
	if sum > n.capacity {
		return n.capacity
	}
	return sum
}

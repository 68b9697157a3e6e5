package fill

// Frontier is the set of nodes currently eligible to receive inflow.
// A cell id is admitted at most once for the lifetime of the Frontier;
// removal does not make it eligible again.
type Frontier struct {
	nodes []*Node
	index map[string]int      // id → position in nodes
	seen  map[string]struct{} // every id ever admitted
}

// NewFrontier allocates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		index: make(map[string]int),
		seen:  make(map[string]struct{}),
	}
}

// Add admits n unless its id was seen before. It reports whether n was added.
func (f *Frontier) Add(n *Node) bool {
	if _, ok := f.seen[n.ID()]; ok {
		return false
	}
	f.seen[n.ID()] = struct{}{}
	f.index[n.ID()] = len(f.nodes)
	f.nodes = append(f.nodes, n)
	return true
}

// Remove takes the node with id out of the active set and returns it
// (nil if it is not active). The id stays marked as seen.
func (f *Frontier) Remove(id string) *Node {
	i, ok := f.index[id]
	if !ok {
		return nil
	}
	n := f.nodes[i]
	last := len(f.nodes) - 1
	if i != last {
		f.nodes[i] = f.nodes[last]
		f.index[f.nodes[i].ID()] = i
	}
	f.nodes[last] = nil
	f.nodes = f.nodes[:last]
	delete(f.index, id)
	return n
}

// Has reports whether id is currently active.
func (f *Frontier) Has(id string) bool {
	_, ok := f.index[id]
	return ok
}

// Seen reports whether id was ever admitted.
func (f *Frontier) Seen(id string) bool {
	_, ok := f.seen[id]
	return ok
}

// Len returns the number of active nodes.
func (f *Frontier) Len() int { return len(f.nodes) }

// Nodes returns the active nodes in no particular order.
func (f *Frontier) Nodes() []*Node {
	out := make([]*Node, len(f.nodes))
	copy(out, f.nodes)
	return out
}

// EarliestCompleted returns the active node with the smallest completion
// time, ties broken by lowest id. Nil when no active node has completed.
func (f *Frontier) EarliestCompleted() *Node {
	var best *Node
	for _, n := range f.nodes {
		at, ok := n.CompletedAt()
		if !ok {
			continue
		}
		if best == nil || at < best.completedAt || (at == best.completedAt && n.ID() < best.ID()) {
			best = n
		}
	}
	return best
}

// ShallowestRemaining returns the active node with the smallest remaining
// capacity, ties broken by lowest id. Nil when the Frontier is empty.
func (f *Frontier) ShallowestRemaining() *Node {
	var best *Node
	for _, n := range f.nodes {
		if best == nil {
			best = n
			continue
		}
		r, br := n.Remaining(), best.Remaining()
		if r < br || (r == br && n.ID() < best.ID()) {
			best = n
		}
	}
	return best
}

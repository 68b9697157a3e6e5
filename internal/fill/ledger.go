package fill

// Ledger records nodes in the order they reached completion.
type Ledger struct {
	nodes []*Node
	index map[string]*Node
}

// NewLedger allocates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]*Node)}
}

// Add appends n. Adding an id twice is a no-op.
func (l *Ledger) Add(n *Node) {
	if _, ok := l.index[n.ID()]; ok {
		return
	}
	l.index[n.ID()] = n
	l.nodes = append(l.nodes, n)
}

// Has reports whether id has completed.
func (l *Ledger) Has(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Get returns the completed node for id (nil if absent).
func (l *Ledger) Get(id string) *Node {
	return l.index[id]
}

// Len returns the number of completed nodes.
func (l *Ledger) Len() int { return len(l.nodes) }

// Nodes returns the completed nodes in completion order.
func (l *Ledger) Nodes() []*Node {
	out := make([]*Node, len(l.nodes))
	copy(out, l.nodes)
	return out
}

// IDs returns the completed ids in completion order.
func (l *Ledger) IDs() []string {
	out := make([]string, len(l.nodes))
	for i, n := range l.nodes {
		out[i] = n.ID()
	}
	return out
}

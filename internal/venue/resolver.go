package venue

// Working is the part of the venue the simulation runs on: every cell
// reachable from a valid entrance.
type Working struct {
	Graph         *Graph
	Entrances     []string // valid entrances, catalog order
	Degenerate    []string // entrance candidates rejected as isolated pockets
	Dropped       []string // cells unreachable from any valid entrance
	TotalCapacity float64
}

// IsIsolatedPair reports whether id has no neighbors, or exactly one neighbor
// whose only neighbor is id. Such a cell cannot route flow into the network.
func IsIsolatedPair(g *Graph, id string) bool {
	switch g.Degree(id) {
	case 0:
		return true
	case 1:
		other := g.Neighbors(id)[0]
		return g.Degree(other) == 1 && g.Adjoins(other, id)
	}
	return false
}

// ReachableFrom collects every cell reachable from any of entrances, using a
// stack-based depth-first walk. Unknown entrance ids are ignored.
func ReachableFrom(g *Graph, entrances []string) map[string]struct{} {
	seen := make(map[string]struct{}, g.CellCount())
	stack := make([]string, 0, len(entrances))
	for _, e := range entrances {
		if g.Has(e) {
			stack = append(stack, e)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		for n := range g.adj[id] {
			if _, ok := seen[n]; !ok {
				stack = append(stack, n)
			}
		}
	}
	return seen
}

// Resolve validates the entrance candidates of g and returns the induced
// subgraph reachable from the valid ones. ErrNoEntrance is returned when no
// candidate survives.
func Resolve(g *Graph) (*Working, error) {
	w := &Working{}
	for _, c := range g.Cells() {
		if !c.IsEntrance() {
			continue
		}
		if IsIsolatedPair(g, c.ID) {
			w.Degenerate = append(w.Degenerate, c.ID)
			continue
		}
		w.Entrances = append(w.Entrances, c.ID)
	}
	if len(w.Entrances) == 0 {
		return w, ErrNoEntrance
	}

	keep := ReachableFrom(g, w.Entrances)
	for _, c := range g.Cells() {
		if _, ok := keep[c.ID]; !ok {
			w.Dropped = append(w.Dropped, c.ID)
		}
	}
	w.Graph = g.Subgraph(keep)
	w.TotalCapacity = w.Graph.TotalCapacity()
	return w, nil
}

// IsEntrance reports whether id is one of the valid entrances.
func (w *Working) IsEntrance(id string) bool {
	for _, e := range w.Entrances {
		if e == id {
			return true
		}
	}
	return false
}

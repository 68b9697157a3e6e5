package venue

import "sort"

// AdjacencyFunc is the external intersects-or-touches oracle.
type AdjacencyFunc func(a, b *Cell) bool

// Graph is an arena of cells keyed by id with symmetric adjacency sets.
// It is immutable once built; reload builds a new Graph.
type Graph struct {
	cells map[string]*Cell
	order []string                       // catalog order
	adj   map[string]map[string]struct{} // id → neighbor ids
}

func newGraph(n int) *Graph {
	return &Graph{
		cells: make(map[string]*Cell, n),
		order: make([]string, 0, n),
		adj:   make(map[string]map[string]struct{}, n),
	}
}

// Build registers every cell and evaluates adjacent once per unordered pair
// of distinct cells. Duplicate ids and malformed cells are rejected.
func Build(cells []Cell, adjacent AdjacencyFunc) (*Graph, error) {
	g := newGraph(len(cells))
	for i := range cells {
		c := cells[i]
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := g.cells[c.ID]; dup {
			return nil, &ConfigurationError{CellID: c.ID, Reason: "duplicate cell id"}
		}
		g.addCell(&c)
	}
	if adjacent == nil {
		return g, nil
	}
	for i := 0; i < len(g.order); i++ {
		a := g.cells[g.order[i]]
		for j := i + 1; j < len(g.order); j++ {
			b := g.cells[g.order[j]]
			if adjacent(a, b) {
				g.link(a.ID, b.ID)
			}
		}
	}
	return g, nil
}

func (g *Graph) addCell(c *Cell) {
	g.cells[c.ID] = c
	g.order = append(g.order, c.ID)
	g.adj[c.ID] = make(map[string]struct{})
}

func (g *Graph) link(a, b string) {
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

// Cell returns a cell by id (nil if not found).
func (g *Graph) Cell(id string) *Cell {
	return g.cells[id]
}

// Cells returns every cell in catalog order.
func (g *Graph) Cells() []*Cell {
	out := make([]*Cell, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.cells[id])
	}
	return out
}

// Neighbors returns the ids adjoining id, sorted.
func (g *Graph) Neighbors(id string) []string {
	set := g.adj[id]
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Degree returns the number of cells adjoining id.
func (g *Graph) Degree(id string) int {
	return len(g.adj[id])
}

// Adjoins reports whether a and b share an edge.
func (g *Graph) Adjoins(a, b string) bool {
	_, ok := g.adj[a][b]
	return ok
}

// Has reports whether id is part of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.cells[id]
	return ok
}

// CellCount returns the total number of cells.
func (g *Graph) CellCount() int {
	return len(g.cells)
}

// EdgeCount returns the number of undirected adjacency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, set := range g.adj {
		n += len(set)
	}
	return n / 2
}

// TotalCapacity sums the static capacity of every cell.
func (g *Graph) TotalCapacity() float64 {
	var sum float64
	for _, id := range g.order {
		sum += g.cells[id].Capacity
	}
	return sum
}

// Subgraph returns the graph induced by keep. Cells share storage with g.
func (g *Graph) Subgraph(keep map[string]struct{}) *Graph {
	sub := newGraph(len(keep))
	for _, id := range g.order {
		if _, ok := keep[id]; ok {
			sub.addCell(g.cells[id])
		}
	}
	for _, id := range sub.order {
		for n := range g.adj[id] {
			if _, ok := keep[n]; ok {
				sub.adj[id][n] = struct{}{}
			}
		}
	}
	return sub
}

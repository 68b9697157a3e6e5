package venue

import (
	"fmt"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
)

// FromConfig classifies every catalog record and builds the graph using the
// touches lists reported by the geometry engine as the adjacency oracle.
func FromConfig(cfg *config.VenueConfig) (*Graph, error) {
	cells := make([]Cell, 0, len(cfg.Cells))
	for i, def := range cfg.Cells {
		c, err := Classify(def, cfg.Attributes, cfg.EntranceNames)
		if err != nil {
			return nil, fmt.Errorf("cells[%d]: %w", i, err)
		}
		cells = append(cells, c)
	}
	adjacent, err := DeclaredAdjacency(cfg.Cells, cfg.Attributes)
	if err != nil {
		return nil, err
	}
	return Build(cells, adjacent)
}

// Classify turns one catalog record into a Cell. Polygons become AREA cells
// and lines become PATH cells; a polygon is an entrance candidate when its
// name attribute is one of entranceNames.
func Classify(def config.CellDef, attrs config.AttributeMap, entranceNames []string) (Cell, error) {
	raw, _ := def.Field(attrs.ID)
	id, ok := config.AttrString(raw)
	if !ok || id == "" {
		return Cell{}, &ConfigurationError{Reason: fmt.Sprintf("attribute %q (id) is missing", attrs.ID)}
	}
	kind, err := ParseKind(def.Geometry)
	if err != nil {
		return Cell{}, &ConfigurationError{CellID: id, Reason: err.Error()}
	}

	capacity, hasCap, err := capacityOf(def, attrs, id)
	if err != nil {
		return Cell{}, err
	}
	wait := floatAttr(def, attrs.WaitTime)

	switch kind {
	case KindArea:
		info := AreaInfo{
			Name:         stringAttr(def, attrs.Name),
			Zone:         stringAttr(def, attrs.AreaClass),
			Remark:       stringAttr(def, attrs.Remark),
			SurfaceM2:    floatAttr(def, attrs.Surface),
			DwellMinutes: wait,
		}
		entrance := contains(entranceNames, info.Name)
		if entrance && !hasCap {
			return Cell{}, &ConfigurationError{CellID: id, Reason: "entrance has no capacity data"}
		}
		return NewArea(id, capacity, entrance, info), nil
	default:
		info := PathInfo{
			Class:        stringAttr(def, attrs.PathClass),
			DwellMinutes: wait,
		}
		if v, ok := def.Field(attrs.Bidirectional); ok {
			info.Bidirectional = config.AttrBool(v)
		}
		return NewPath(id, capacity, info), nil
	}
}

// DeclaredAdjacency returns an AdjacencyFunc backed by the touches lists of
// defs. An edge exists when either side declares the other. Unknown targets
// are reported as a ConfigurationError.
func DeclaredAdjacency(defs []config.CellDef, attrs config.AttributeMap) (AdjacencyFunc, error) {
	known := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		raw, _ := def.Field(attrs.ID)
		id, _ := config.AttrString(raw)
		known[id] = struct{}{}
	}
	declared := make(map[[2]string]struct{})
	for _, def := range defs {
		raw, _ := def.Field(attrs.ID)
		id, _ := config.AttrString(raw)
		for _, t := range def.Touches {
			if _, ok := known[t]; !ok {
				return nil, &ConfigurationError{CellID: id, Reason: fmt.Sprintf("adjacency target %q is unknown", t)}
			}
			declared[pairKey(id, t)] = struct{}{}
		}
	}
	return func(a, b *Cell) bool {
		_, ok := declared[pairKey(a.ID, b.ID)]
		return ok
	}, nil
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func capacityOf(def config.CellDef, attrs config.AttributeMap, id string) (float64, bool, error) {
	raw, ok := def.Field(attrs.Capacity)
	if !ok || raw == nil {
		return 0, false, nil
	}
	v, ok := config.AttrFloat(raw)
	if !ok {
		return 0, false, &ConfigurationError{CellID: id, Reason: fmt.Sprintf("capacity %v is not numeric", raw)}
	}
	if v < 0 {
		return 0, false, &ConfigurationError{CellID: id, Reason: fmt.Sprintf("capacity %v is negative", v)}
	}
	return v, true, nil
}

func stringAttr(def config.CellDef, key string) string {
	v, ok := def.Field(key)
	if !ok {
		return ""
	}
	s, _ := config.AttrString(v)
	return s
}

func floatAttr(def config.CellDef, key string) float64 {
	v, ok := def.Field(key)
	if !ok {
		return 0
	}
	f, _ := config.AttrFloat(v)
	return f
}

func contains(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

package venue

import (
	"fmt"
	"strings"
)

// Kind discriminates the two kinds of venue cells.
type Kind string

const (
	KindArea Kind = "AREA"
	KindPath Kind = "PATH"
)

// ParseKind maps a geometry label from the catalog onto a Kind.
// Polygons are areas and lines are paths.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AREA", "POLYGON":
		return KindArea, nil
	case "PATH", "LINE":
		return KindPath, nil
	}
	return "", fmt.Errorf("unknown cell geometry %q", s)
}

// Cell is one spatial unit of the venue. Cells are created once when the
// graph is built and never mutated afterwards.
type Cell struct {
	ID       string
	Kind     Kind
	Capacity float64 // static bearing capacity
	Entrance bool    // only ever true for AREA cells

	// Exactly one of Area or Path is set, matching Kind.
	Area *AreaInfo
	Path *PathInfo
}

// AreaInfo holds polygon-only attributes.
type AreaInfo struct {
	Name         string
	Zone         string
	Remark       string
	SurfaceM2    float64
	DwellMinutes float64
}

// PathInfo holds line-only attributes.
type PathInfo struct {
	Class         string
	DwellMinutes  float64
	Bidirectional bool
}

// NewArea returns an AREA cell.
func NewArea(id string, capacity float64, entrance bool, info AreaInfo) Cell {
	return Cell{ID: id, Kind: KindArea, Capacity: capacity, Entrance: entrance, Area: &info}
}

// NewPath returns a PATH cell.
func NewPath(id string, capacity float64, info PathInfo) Cell {
	return Cell{ID: id, Kind: KindPath, Capacity: capacity, Path: &info}
}

// IsEntrance reports whether the cell is an entrance candidate.
func (c *Cell) IsEntrance() bool {
	return c.Kind == KindArea && c.Entrance
}

func (c *Cell) validate() error {
	if c.ID == "" {
		return &ConfigurationError{Reason: "cell id is required"}
	}
	if c.Capacity < 0 {
		return &ConfigurationError{CellID: c.ID, Reason: fmt.Sprintf("capacity %v is negative", c.Capacity)}
	}
	switch c.Kind {
	case KindArea:
		if c.Area == nil || c.Path != nil {
			return &ConfigurationError{CellID: c.ID, Reason: "AREA cell must carry area attributes only"}
		}
	case KindPath:
		if c.Path == nil || c.Area != nil {
			return &ConfigurationError{CellID: c.ID, Reason: "PATH cell must carry path attributes only"}
		}
		if c.Entrance {
			return &ConfigurationError{CellID: c.ID, Reason: "PATH cell cannot be an entrance"}
		}
	default:
		return &ConfigurationError{CellID: c.ID, Reason: fmt.Sprintf("unknown kind %q", c.Kind)}
	}
	return nil
}

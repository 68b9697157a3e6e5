package config

import (
	"fmt"
	"strings"
)

var profileKinds = map[string]bool{
	"static":    true,
	"sine":      true,
	"staged":    true,
	"piecewise": true,
}

// Validate checks the config for:
//   - Required fields and a positive simulation horizon
//   - Duplicate or missing cell ids
//   - touches entries naming unknown cells
//   - Entrances without capacity data
//   - Malformed profile definitions
func Validate(cfg *VenueConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Simulation.TimeStepMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("simulation: time_step_minutes must be positive, got %v", cfg.Simulation.TimeStepMinutes))
	}
	if cfg.Simulation.DurationMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("simulation: duration_minutes must be positive, got %d", cfg.Simulation.DurationMinutes))
	}

	validateCells(cfg, &errs)
	validateProfiles(cfg.Profiles, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateCells(cfg *VenueConfig, errs *[]string) {
	attrs := cfg.Attributes
	entrances := make(map[string]struct{}, len(cfg.EntranceNames))
	for _, n := range cfg.EntranceNames {
		entrances[n] = struct{}{}
	}

	ids := make(map[string]int, len(cfg.Cells)) // id → index
	for i, c := range cfg.Cells {
		raw, ok := c.Field(attrs.ID)
		id, _ := AttrString(raw)
		if !ok || id == "" {
			*errs = append(*errs, fmt.Sprintf("cells[%d]: attribute %q (id) is required", i, attrs.ID))
			continue
		}
		if prev, dup := ids[id]; dup {
			*errs = append(*errs, fmt.Sprintf("duplicate cell id %q (cells[%d] and cells[%d])", id, prev, i))
			continue
		}
		ids[id] = i

		geom := strings.ToLower(c.Geometry)
		if geom != "polygon" && geom != "line" {
			*errs = append(*errs, fmt.Sprintf("cell %s: geometry must be polygon or line, got %q", id, c.Geometry))
		}

		capRaw, hasCap := c.Field(attrs.Capacity)
		if hasCap {
			if v, ok := AttrFloat(capRaw); !ok || v < 0 {
				*errs = append(*errs, fmt.Sprintf("cell %s: capacity %v must be a non-negative number", id, capRaw))
			}
		}
		if geom == "polygon" && !hasCap {
			name, _ := c.Field(attrs.Name)
			if s, _ := AttrString(name); s != "" {
				if _, isEntrance := entrances[s]; isEntrance {
					*errs = append(*errs, fmt.Sprintf("entrance %s: capacity attribute %q is missing", id, attrs.Capacity))
				}
			}
		}
	}

	for i, c := range cfg.Cells {
		raw, _ := c.Field(attrs.ID)
		id, _ := AttrString(raw)
		for _, t := range c.Touches {
			if _, ok := ids[t]; !ok {
				*errs = append(*errs, fmt.Sprintf("cells[%d] (%s): touches unknown cell %q", i, id, t))
			}
		}
	}
}

func validateProfiles(profiles []ProfileDef, errs *[]string) {
	seen := make(map[string]struct{}, len(profiles))
	for i, p := range profiles {
		if p.ID == "" {
			*errs = append(*errs, fmt.Sprintf("profiles[%d]: id is required", i))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			*errs = append(*errs, fmt.Sprintf("duplicate profile id %q", p.ID))
		}
		seen[p.ID] = struct{}{}
		if !profileKinds[p.Kind] {
			*errs = append(*errs, fmt.Sprintf("profile %s: unknown kind %q", p.ID, p.Kind))
			continue
		}
		if p.Kind == "piecewise" {
			if len(p.Segments) == 0 {
				*errs = append(*errs, fmt.Sprintf("profile %s: piecewise profile needs at least one segment", p.ID))
			}
			for j, s := range p.Segments {
				if strings.TrimSpace(s.When) == "" {
					*errs = append(*errs, fmt.Sprintf("profile %s: segments[%d].when is required", p.ID, j))
				}
			}
		}
	}
}

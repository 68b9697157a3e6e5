package config

// VenueConfig is the top-level YAML structure.
type VenueConfig struct {
	Version       string        `yaml:"version"`
	Simulation    SimulationConf `yaml:"simulation"`
	Attributes    AttributeMap  `yaml:"attributes"`
	EntranceNames []string      `yaml:"entrance_names"`
	Cells         []CellDef     `yaml:"cells"`
	Profiles      []ProfileDef  `yaml:"profiles"`
	Engine        EngineConf    `yaml:"engine"`
	Store         StoreConf     `yaml:"store"`
}

// SimulationConf controls the simulated horizon.
type SimulationConf struct {
	TimeStepMinutes float64 `yaml:"time_step_minutes"`
	DurationMinutes int     `yaml:"duration_minutes"`
}

// AttributeMap names the catalog record fields that carry each cell property.
type AttributeMap struct {
	ID            string `yaml:"id"`
	Capacity      string `yaml:"capacity"`
	Name          string `yaml:"name"`
	AreaClass     string `yaml:"area_class"`
	PathClass     string `yaml:"path_class"`
	WaitTime      string `yaml:"wait_time"`
	Remark        string `yaml:"remark"`
	Surface       string `yaml:"surface"`
	Bidirectional string `yaml:"bidirectional"`
}

// CellDef is one catalog record as produced by the external geometry reader.
// Touches lists the ids the geometry engine found intersecting or touching.
type CellDef struct {
	Geometry   string                 `yaml:"geometry"` // polygon | line
	Attributes map[string]interface{} `yaml:"attributes"`
	Touches    []string               `yaml:"touches"`
}

// ProfileDef describes an inflow profile. Which fields apply depends on Kind.
type ProfileDef struct {
	ID       string             `yaml:"id" json:"id,omitempty"`
	Kind     string             `yaml:"kind" json:"kind"` // static | sine | staged | piecewise
	Params   map[string]float64 `yaml:"params" json:"params,omitempty"`
	Segments []SegmentDef       `yaml:"segments" json:"segments,omitempty"`
}

// SegmentDef is one piecewise profile segment.
type SegmentDef struct {
	When  string  `yaml:"when" json:"when"`
	Entry RateDef `yaml:"entry" json:"entry"`
	Exit  RateDef `yaml:"exit" json:"exit"`
}

// RateDef is either a constant Value or a linear ramp From→To over [Start, End].
type RateDef struct {
	Value *float64 `yaml:"value,omitempty" json:"value,omitempty"`
	From  float64  `yaml:"from" json:"from,omitempty"`
	To    float64  `yaml:"to" json:"to,omitempty"`
	Start float64  `yaml:"start" json:"start,omitempty"`
	End   float64  `yaml:"end" json:"end,omitempty"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers      int `yaml:"workers"`
	QueueDepth   int `yaml:"queue_depth"`
	RunTimeoutMs int `yaml:"run_timeout_ms"`
}

// StoreConf locates the run database. An empty Path disables persistence.
type StoreConf struct {
	Path string `yaml:"path"`
}

// Field returns the raw attribute named key, reporting whether it was present.
func (c CellDef) Field(key string) (interface{}, bool) {
	if key == "" || c.Attributes == nil {
		return nil, false
	}
	v, ok := c.Attributes[key]
	return v, ok
}

package fill

import "github.com/gyaneshwarpardhi/dbc/internal/venue"

// UnfilledCell is a reachable cell that never saturated within the horizon.
type UnfilledCell struct {
	ID        string     `json:"id"`
	Kind      venue.Kind `json:"kind"`
	Neighbors []string   `json:"neighbors"`
}

// Result is the outcome of one Execute call.
type Result struct {
	Duration       int            `json:"duration_minutes"`
	TimeStep       float64        `json:"time_step_minutes"`
	StaticCapacity float64        `json:"static_capacity"`
	TotalInflow    float64        `json:"total_inflow"`
	DBC            []float64      `json:"dbc"`
	Saturated      []string       `json:"saturated"`
	Unfilled       []UnfilledCell `json:"unfilled"`
	Degenerate     []string       `json:"degenerate_entrances,omitempty"`
	Nodes          []*Node        `json:"-"`
}

// Summary condenses a Result the way the capacity report presents it.
type Summary struct {
	StaticCapacity float64 `json:"static_capacity"`
	TotalInflow    float64 `json:"total_inflow"`
	PeakDBC        float64 `json:"peak_dbc"`
	PeakMinute     int     `json:"peak_minute"`
	// ReachingMinute is the first step whose occupancy reached the static
	// capacity, or -1.
	ReachingMinute int     `json:"reaching_minute"`
	KeepingMinutes int     `json:"keeping_minutes"`
	EntryAtReach   float64 `json:"entry_at_reach"`
	ExitAtReach    float64 `json:"exit_at_reach"`
	UnfilledCount  int     `json:"unfilled_count"`
}

// Summarize derives the report figures. entry and exit are the separate
// rates behind the net series and may be nil.
func Summarize(res *Result, entry, exit []float64) Summary {
	s := Summary{
		StaticCapacity: res.StaticCapacity,
		TotalInflow:    res.TotalInflow,
		ReachingMinute: -1,
		UnfilledCount:  len(res.Unfilled),
	}
	for i, db := range res.DBC {
		if db > s.PeakDBC {
			s.PeakDBC = db
			s.PeakMinute = i
		}
		if res.StaticCapacity > 0 && db >= res.StaticCapacity {
			if s.ReachingMinute < 0 {
				s.ReachingMinute = i
			}
			s.KeepingMinutes++
		}
	}
	if s.ReachingMinute >= 0 {
		if s.ReachingMinute < len(entry) {
			s.EntryAtReach = entry[s.ReachingMinute]
		}
		if s.ReachingMinute < len(exit) {
			s.ExitAtReach = exit[s.ReachingMinute]
		}
	}
	return s
}

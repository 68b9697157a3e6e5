package venue

import (
	"errors"
	"fmt"
)

// ErrNoEntrance is returned when no entrance candidate survives validation.
var ErrNoEntrance = errors.New("venue: no valid entrance")

// ConfigurationError reports a catalog problem that prevents the graph from
// being built. The simulation never starts when one is returned.
type ConfigurationError struct {
	CellID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.CellID == "" {
		return "venue configuration: " + e.Reason
	}
	return fmt.Sprintf("venue configuration: cell %s: %s", e.CellID, e.Reason)
}

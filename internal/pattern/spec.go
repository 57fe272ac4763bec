package pattern

import (
	"fmt"
	"time"
)

// DefaultInterval is used when a spec does not name one.
const DefaultInterval = time.Second

// Spec is the declarative form of a pattern, as it appears in API requests.
type Spec struct {
	Kind     string        `json:"kind" binding:"required"`
	Step     uint16        `json:"step,omitempty"`
	Min      uint16        `json:"min,omitempty"`
	Max      uint16        `json:"max,omitempty"`
	Interval time.Duration `json:"interval,omitempty"`
}

// Build resolves the spec into a concrete Pattern.
func (s Spec) Build() (Pattern, error) {
	switch s.Kind {
	case "increment":
		return Increment{Step: s.Step}, nil
	case "decrement":
		return Decrement{Step: s.Step}, nil
	case "ramp":
		if s.Max <= s.Min {
			return nil, fmt.Errorf("ramp needs min < max, got [%d, %d]", s.Min, s.Max)
		}
		return Ramp{Min: s.Min, Max: s.Max, Step: s.Step}, nil
	case "random":
		if s.Max < s.Min {
			return nil, fmt.Errorf("random needs min <= max, got [%d, %d]", s.Min, s.Max)
		}
		return Random{Min: s.Min, Max: s.Max}, nil
	default:
		return nil, fmt.Errorf("unknown pattern kind %q", s.Kind)
	}
}

// TickInterval returns the configured interval or the default.
func (s Spec) TickInterval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

package cells

import (
	"encoding/json"
	"fmt"
)

func (s *WriteableSignal[T]) String() string {
	if s.name == "" {
		return fmt.Sprintf("Signal(%v)", s.value)
	}
	return fmt.Sprintf("Signal[%s](%v)", s.name, s.value)
}

// MarshalJSON encodes the current value. It never records a dependency.
func (s *WriteableSignal[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

// String reports the cached value and whether it is up to date. It never
// triggers a recompute.
func (c *Computed[T]) String() string {
	state := "stale"
	if c.ready && c.node.state == cacheClean {
		state = "fresh"
	}
	if c.node.name == "" {
		return fmt.Sprintf("Computed(%v, %s)", c.value, state)
	}
	return fmt.Sprintf("Computed[%s](%v, %s)", c.node.name, c.value, state)
}

// MarshalJSON brings the value up to date and encodes it.
func (c *Computed[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Peek())
}

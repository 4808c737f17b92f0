package scan

import "fmt"

type PortState uint8

const (
	PortUnknown PortState = iota
	PortOpen
	PortClosed
	PortTimeout
	PortError
)

func (s PortState) String() string {
	switch s {
	case PortOpen:
		return "open"
	case PortClosed:
		return "closed"
	case PortTimeout:
		return "timeout"
	case PortError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText lets reports encode states by name.
func (s PortState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PortState) UnmarshalText(text []byte) error {
	for _, state := range []PortState{PortUnknown, PortOpen, PortClosed, PortTimeout, PortError} {
		if state.String() == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown port state '%s'", text)
}

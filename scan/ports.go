package scan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"
)

// PortRange is an inclusive range of TCP ports.
type PortRange struct {
	Start uint16
	End   uint16
}

// DefaultPortRange is the narrow range probed when no ports are selected.
var DefaultPortRange = PortRange{Start: 79, End: 80}

func NewPortRange(start, end uint16) (PortRange, error) {
	r := PortRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return PortRange{}, err
	}
	return r, nil
}

func (r PortRange) Validate() error {
	if r.Start == 0 {
		return fmt.Errorf("%w: port 0 cannot be probed", ErrInvalidPortRange)
	}
	if r.Start > r.End {
		return fmt.Errorf("%w: %d-%d", ErrInvalidPortRange, r.Start, r.End)
	}
	return nil
}

// Count returns the number of ports in the range.
func (r PortRange) Count() int {
	if r.Start > r.End {
		return 0
	}
	return int(r.End) - int(r.Start) + 1
}

// Port returns the port at offset i from the start of the range.
func (r PortRange) Port(i int) uint16 {
	return uint16(int(r.Start) + i)
}

func (r PortRange) Contains(port uint16) bool {
	return port >= r.Start && port <= r.End
}

func (r PortRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(int(r.Start))
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParsePortRange parses a single port ("80") or an inclusive range ("1-1024").
func ParsePortRange(selection string) (PortRange, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return DefaultPortRange, nil
	}

	parts := strings.Split(selection, "-")
	if len(parts) > 2 {
		return PortRange{}, fmt.Errorf("%w: invalid port selection segment: '%s'", ErrInvalidPortRange, selection)
	}

	start, err := parsePort(parts[0])
	if err != nil {
		return PortRange{}, err
	}
	end := start
	if len(parts) == 2 {
		if end, err = parsePort(parts[1]); err != nil {
			return PortRange{}, err
		}
	}

	return NewPortRange(start, end)
}

func parsePort(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid port number: '%s'", ErrInvalidPortRange, s)
	}
	return uint16(port), nil
}

// DescribePort returns the IANA service name registered for a TCP port, or "".
func DescribePort(port uint16) string {
	// layers.TCPPort renders as "80(http)" when the port has a registered name.
	s := layers.TCPPort(port).String()
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return ""
	}
	return s[open+1 : len(s)-1]
}

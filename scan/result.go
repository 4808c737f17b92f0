package scan

import (
	"fmt"
	"time"
)

type ProbeResult struct {
	Port    uint16
	State   PortState
	Latency time.Duration
	// Cause is set when State is PortError.
	Cause error
}

func (r ProbeResult) String() string {
	text := fmt.Sprintf(
		"%s%s%s",
		pad(fmt.Sprintf("%d/tcp", r.Port), 10),
		pad(r.State.String(), 10),
		DescribePort(r.Port),
	)
	if r.Cause != nil {
		text = fmt.Sprintf("%s\t%s", text, r.Cause)
	}
	return text
}

// Report is the outcome of scanning one target. Results are ordered by port.
// A report is complete when it covers every port of Range; a cancelled scan
// yields a Partial report covering only the ports probed before cancellation.
type Report struct {
	Target   Target
	Range    PortRange
	Results  []ProbeResult
	Started  time.Time
	Finished time.Time
	Partial  bool
}

func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Open returns the open ports in ascending order.
func (r *Report) Open() []uint16 {
	ports := []uint16{}
	for _, result := range r.Results {
		if result.State == PortOpen {
			ports = append(ports, result.Port)
		}
	}
	return ports
}

// Count returns how many results are in the given state.
func (r *Report) Count(state PortState) int {
	n := 0
	for _, result := range r.Results {
		if result.State == state {
			n++
		}
	}
	return n
}

// Lookup returns the result recorded for port, if any.
func (r *Report) Lookup(port uint16) (ProbeResult, bool) {
	if !r.Range.Contains(port) {
		return ProbeResult{}, false
	}
	for _, result := range r.Results {
		if result.Port == port {
			return result, true
		}
	}
	return ProbeResult{}, false
}

func pad(input string, length int) string {
	for len(input) < length {
		input += " "
	}
	return input
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/liamg/portprobe/scan"
)

var (
	headerColour = color.New(color.FgCyan)
	openColour   = color.New(color.FgGreen, color.Bold)
	warnColour   = color.New(color.FgYellow)
)

var rule = strings.Repeat("-", 50)

func printHeader(w io.Writer, target scan.Target, ports scan.PortRange, start time.Time) {
	fmt.Fprintln(w, rule)
	headerColour.Fprintf(w, "Scanning target %s\n", target)
	fmt.Fprintf(w, "Ports: %s\n", ports)
	fmt.Fprintf(w, "Start time: %s\n", start.Format(time.RFC1123))
	fmt.Fprintln(w, rule)
}

func printReport(w io.Writer, report *scan.Report, all bool) {

	for _, port := range report.Open() {
		if name := scan.DescribePort(port); name != "" {
			openColour.Fprintf(w, "Port %d is open (%s)\n", port, name)
		} else {
			openColour.Fprintf(w, "Port %d is open\n", port)
		}
	}

	if all && len(report.Results) > 0 {
		fmt.Fprintf(w, "\n%s%s%s\n", pad("PORT", 10), pad("STATE", 10), "SERVICE")
		for _, result := range report.Results {
			fmt.Fprintln(w, result.String())
		}
	}

	summary := fmt.Sprintf(
		"%d open, %d closed, %d timed out, %d errors (%d of %d ports)",
		len(report.Open()),
		report.Count(scan.PortClosed),
		report.Count(scan.PortTimeout),
		report.Count(scan.PortError),
		len(report.Results),
		report.Range.Count(),
	)

	fmt.Fprintln(w, rule)
	if report.Partial {
		warnColour.Fprintf(w, "Scan interrupted after %s: %s.\n", report.Duration().Round(time.Millisecond), summary)
		return
	}
	fmt.Fprintf(w, "Scan complete in %s: %s.\n", report.Duration().Round(time.Millisecond), summary)
}

func pad(input string, length int) string {
	for len(input) < length {
		input += " "
	}
	return input
}

type jsonResult struct {
	Port      uint16         `json:"port"`
	State     scan.PortState `json:"state"`
	Service   string         `json:"service,omitempty"`
	LatencyMS float64        `json:"latency_ms"`
	Error     string         `json:"error,omitempty"`
}

type jsonReport struct {
	Target   string       `json:"target"`
	IP       string       `json:"ip"`
	Ports    string       `json:"ports"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Partial  bool         `json:"partial"`
	Open     []uint16     `json:"open"`
	Results  []jsonResult `json:"results"`
}

func writeJSON(w io.Writer, report *scan.Report) error {
	out := jsonReport{
		Target:   report.Target.Raw,
		IP:       report.Target.IP.String(),
		Ports:    report.Range.String(),
		Started:  report.Started,
		Finished: report.Finished,
		Partial:  report.Partial,
		Open:     report.Open(),
		Results:  make([]jsonResult, 0, len(report.Results)),
	}
	for _, result := range report.Results {
		jr := jsonResult{
			Port:      result.Port,
			State:     result.State,
			Service:   scan.DescribePort(result.Port),
			LatencyMS: float64(result.Latency.Microseconds()) / 1000,
		}
		if result.Cause != nil {
			jr.Error = result.Cause.Error()
		}
		out.Results = append(out.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

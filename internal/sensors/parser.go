// Package sensors classifies the free-text output of hardware sensor dumps.
package sensors

import (
	"regexp"
	"strings"
)

// FanSeparator joins multiple fan lines into a single summary.
const FanSeparator = " | "

// LineKind is the classification of one sensor dump line.
type LineKind int

const (
	KindOther LineKind = iota
	KindTemperature
	KindFan
)

func (k LineKind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindFan:
		return "fan"
	default:
		return "other"
	}
}

var temperatureMarkers = []string{"package id", "tctl", "tdie", "temp"}

// coreLabel matches per-core coretemp labels such as "Core 0:". Labels like
// "CPU Core Voltage:" are not temperatures.
var coreLabel = regexp.MustCompile(`^(?i)core\s+\d+\s*:`)

const fanMarker = "fan"

// Line is a trimmed input line with its classification.
type Line struct {
	Text string
	Kind LineKind
}

// Report is the display selection made from a sensor dump.
type Report struct {
	// Temperature is the first temperature line, empty when none matched.
	Temperature string
	Fans        []string
}

// HasTemperature reports whether a temperature line was found.
func (r Report) HasTemperature() bool {
	return r.Temperature != ""
}

// FanSummary joins all fan lines, empty when none matched.
func (r Report) FanSummary() string {
	return strings.Join(r.Fans, FanSeparator)
}

// Classify returns the kind of a single line. Only "label: value" lines are
// considered; chip headers such as "coretemp-isa-0000" are KindOther.
func Classify(line string) LineKind {
	if !strings.Contains(line, ":") {
		return KindOther
	}
	if coreLabel.MatchString(strings.TrimSpace(line)) {
		return KindTemperature
	}
	lower := strings.ToLower(line)
	for _, marker := range temperatureMarkers {
		if strings.Contains(lower, marker) {
			return KindTemperature
		}
	}
	if strings.Contains(lower, fanMarker) {
		return KindFan
	}
	return KindOther
}

// ClassifyAll splits text into non-empty trimmed lines and classifies each.
// Lines of any length are accepted.
func ClassifyAll(text string) []Line {
	var lines []Line
	for raw := range strings.Lines(text) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		lines = append(lines, Line{Text: trimmed, Kind: Classify(trimmed)})
	}
	return lines
}

// Parse selects the representative temperature line and all fan lines.
// It never fails; unmatched input yields an empty Report.
func Parse(text string) Report {
	var report Report
	for _, line := range ClassifyAll(text) {
		switch line.Kind {
		case KindTemperature:
			if report.Temperature == "" {
				report.Temperature = line.Text
			}
		case KindFan:
			report.Fans = append(report.Fans, line.Text)
		}
	}
	return report
}

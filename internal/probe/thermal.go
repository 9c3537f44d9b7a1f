package probe

import (
	"context"
	"strings"

	"github.com/skobkin/corebuddy/internal/command"
	"github.com/skobkin/corebuddy/internal/reading"
	"github.com/skobkin/corebuddy/internal/sensors"
)

// ThermalFanProbe runs the sensor dump command once per cycle and extracts
// the temperature and fan lines from its output.
type ThermalFanProbe struct {
	runner  command.Runner
	command string
}

// NewThermalFanProbe builds a probe; an empty command means "sensors".
func NewThermalFanProbe(runner command.Runner, name string) *ThermalFanProbe {
	if name == "" {
		name = "sensors"
	}
	return &ThermalFanProbe{runner: runner, command: name}
}

// Sample fails only when the command cannot be run or prints nothing. Output
// without matching lines yields unavailable readings and no error.
func (p *ThermalFanProbe) Sample(ctx context.Context) (reading.ThermalFan, error) {
	out, err := p.runner.Run(ctx, p.command)
	if err != nil {
		return reading.ThermalFan{}, err
	}
	text := string(out)
	if strings.TrimSpace(text) == "" {
		return reading.ThermalFan{}, reading.Shape(p.command, "empty output")
	}

	report := sensors.Parse(text)
	result := reading.ThermalFan{
		Thermal: reading.UnavailableText(reading.ReasonNoTemperature),
		Fan:     reading.UnavailableText(reading.ReasonNoFan),
	}
	if report.HasTemperature() {
		result.Thermal = reading.Present(report.Temperature)
	}
	if len(report.Fans) > 0 {
		result.Fan = reading.Present(report.FanSummary())
	}
	return result, nil
}

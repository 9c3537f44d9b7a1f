package sensors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coretempDump = `coretemp-isa-0000
Adapter: ISA adapter
Package id 0:  +45.0°C  (high = +80.0°C, crit = +100.0°C)
Core 0:        +42.0°C  (high = +80.0°C, crit = +100.0°C)
Core 1:        +44.0°C  (high = +80.0°C, crit = +100.0°C)

thinkpad-isa-0000
Adapter: ISA adapter
fan1:        2134 RPM
fan2:           0 RPM
`

func TestParseSimpleDump(t *testing.T) {
	t.Parallel()

	report := Parse(strings.Join([]string{"Package id 0: +45.0°C", "fan1: 1200 RPM", "random text"}, "\n"))

	assert.Equal(t, "Package id 0: +45.0°C", report.Temperature)
	assert.Equal(t, "fan1: 1200 RPM", report.FanSummary())
}

func TestParseCoretempDump(t *testing.T) {
	t.Parallel()

	report := Parse(coretempDump)

	require.True(t, report.HasTemperature())
	assert.Equal(t, "Package id 0:  +45.0°C  (high = +80.0°C, crit = +100.0°C)", report.Temperature)
	assert.Equal(t, "fan1:        2134 RPM | fan2:           0 RPM", report.FanSummary())
}

func TestParseAMDTctl(t *testing.T) {
	t.Parallel()

	report := Parse("k10temp-pci-00c3\nAdapter: PCI adapter\nTctl:         +51.5°C\n")

	assert.Equal(t, "Tctl:         +51.5°C", report.Temperature)
	assert.Empty(t, report.Fans)
	assert.Empty(t, report.FanSummary())
}

func TestParseNoMatches(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "\n\n", "random text\nAdapter: ISA adapter"} {
		report := Parse(input)
		assert.False(t, report.HasTemperature(), "input %q", input)
		assert.Empty(t, report.Fans, "input %q", input)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want LineKind
	}{
		{line: "Package id 0: +45.0°C", want: KindTemperature},
		{line: "CORE 3: +40.0°C", want: KindTemperature},
		{line: "Tdie: +60.1°C", want: KindTemperature},
		{line: "temp1: +27.8°C", want: KindTemperature},
		{line: "Core 12 : +41.0°C", want: KindTemperature},
		{line: "CPU Core Voltage: +1.26 V", want: KindOther},
		{line: "Vcore: +1.10 V", want: KindOther},
		{line: "fan1: 1200 RPM", want: KindFan},
		{line: "CPU Fan: 900 RPM", want: KindFan},
		{line: "coretemp-isa-0000", want: KindOther},
		{line: "Adapter: ISA adapter", want: KindOther},
		{line: "random text", want: KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}

func TestClassifyAllSkipsBlankLines(t *testing.T) {
	t.Parallel()

	lines := ClassifyAll("  fan1: 1 RPM  \n\n   \nrandom\n")

	require.Len(t, lines, 2)
	assert.Equal(t, Line{Text: "fan1: 1 RPM", Kind: KindFan}, lines[0])
	assert.Equal(t, KindOther, lines[1].Kind)
	assert.Equal(t, "other", lines[1].Kind.String())
}

func TestParseSkipsVoltageBeforeTemperature(t *testing.T) {
	t.Parallel()

	dump := `asuswmisensors-isa-0000
Adapter: ISA adapter
CPU Core Voltage:         +1.26 V
CPU Fan:                 1200 RPM
CPU Temperature:          +45.0°C
`
	report := Parse(dump)

	assert.Equal(t, "CPU Temperature:          +45.0°C", report.Temperature)
	assert.Equal(t, "CPU Fan:                 1200 RPM", report.FanSummary())
}

func TestClassifyAllHandlesVeryLongLines(t *testing.T) {
	t.Parallel()

	long := "junk: " + strings.Repeat("x", 2<<20)
	lines := ClassifyAll(long + "\nfan1: 900 RPM\r\ntemp1: +30.0°C")

	require.Len(t, lines, 3)
	assert.Equal(t, KindOther, lines[0].Kind)
	assert.Equal(t, Line{Text: "fan1: 900 RPM", Kind: KindFan}, lines[1])
	assert.Equal(t, Line{Text: "temp1: +30.0°C", Kind: KindTemperature}, lines[2])
}

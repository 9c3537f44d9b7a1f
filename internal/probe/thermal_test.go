package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/corebuddy/internal/command"
	"github.com/skobkin/corebuddy/internal/reading"
)

func staticRunner(out string, err error) command.Runner {
	return command.RunnerFunc(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(out), err
	})
}

func TestThermalFanProbePresent(t *testing.T) {
	t.Parallel()

	probe := NewThermalFanProbe(staticRunner("Package id 0: +45.0°C\nfan1: 1200 RPM\nrandom text\n", nil), "")

	got, err := probe.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reading.Present("Package id 0: +45.0°C"), got.Thermal)
	assert.Equal(t, reading.Present("fan1: 1200 RPM"), got.Fan)
}

func TestThermalFanProbeNoMatches(t *testing.T) {
	t.Parallel()

	probe := NewThermalFanProbe(staticRunner("acpitz-acpi-0\nAdapter: ACPI interface\n", nil), "sensors")

	got, err := probe.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reading.UnavailableText("no temperature readings"), got.Thermal)
	assert.Equal(t, reading.UnavailableText("no fan readings"), got.Fan)
}

func TestThermalFanProbeFailures(t *testing.T) {
	t.Parallel()

	_, err := NewThermalFanProbe(staticRunner("", reading.Invocation("sensors", errors.New("sensors not found"))), "").Sample(context.Background())
	assert.ErrorIs(t, err, reading.ErrInvocation)

	_, err = NewThermalFanProbe(staticRunner("  \n", nil), "").Sample(context.Background())
	assert.ErrorIs(t, err, reading.ErrShape)
}

type staticResolver reading.GPU

func (r staticResolver) Resolve(context.Context) reading.GPU { return reading.GPU(r) }

func TestGPUProbeNeverFails(t *testing.T) {
	t.Parallel()

	want := reading.UnavailableGPU("nvidia: nvidia-smi not found")
	got, err := NewGPUProbe(staticResolver(want)).Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()

	var p Probe[int] = Func[int](func(context.Context) (int, error) { return 7, nil })
	got, err := p.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

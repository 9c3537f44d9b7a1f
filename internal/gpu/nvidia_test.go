package gpu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/corebuddy/internal/command"
	"github.com/skobkin/corebuddy/internal/reading"
)

func TestParseNvidiaCSV(t *testing.T) {
	t.Parallel()

	gpu, err := ParseNvidiaCSV("37, 512, 4096\n")
	require.NoError(t, err)
	assert.Equal(t, reading.GPUKindNvidia, gpu.Kind)
	assert.Equal(t, 37.0, gpu.UtilizationPct)
	assert.Equal(t, uint64(512), gpu.MemoryUsedMB)
	assert.Equal(t, uint64(4096), gpu.MemoryTotalMB)
}

func TestParseNvidiaCSVUsesFirstRecord(t *testing.T) {
	t.Parallel()

	gpu, err := ParseNvidiaCSV("5, 100, 8192\n90, 7000, 8192\n")
	require.NoError(t, err)
	assert.Equal(t, 5.0, gpu.UtilizationPct)
	assert.Equal(t, uint64(100), gpu.MemoryUsedMB)
}

func TestParseNvidiaCSVShapeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "two fields", raw: "bad,data"},
		{name: "empty", raw: ""},
		{name: "four fields", raw: "1, 2, 3, 4"},
		{name: "not supported", raw: "[N/A], 512, 4096"},
		{name: "negative memory", raw: "10, -1, 4096"},
		{name: "utilization over range", raw: "140, 1, 2"},
		{name: "driver message", raw: "NVIDIA-SMI has failed because it couldn't communicate with the NVIDIA driver."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseNvidiaCSV(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, reading.ErrShape)
		})
	}
}

func TestNvidiaStrategyInvokesQuery(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotArgs []string
	runner := command.RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte("12, 256, 2048\n"), nil
	})

	gpu, err := NewNvidiaStrategy(runner, "").Query(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nvidia-smi", gotName)
	assert.Equal(t, []string{"--query-gpu=utilization.gpu,memory.used,memory.total", "--format=csv,noheader,nounits"}, gotArgs)
	assert.Equal(t, StrategyNvidia, gpu.Strategy)
	assert.Equal(t, uint64(2048), gpu.MemoryTotalMB)
}

func TestParseGLXInfoDevice(t *testing.T) {
	t.Parallel()

	out := `name of display: :0
display: :0  screen: 0
direct rendering: Yes
Extended renderer info (GLX_MESA_query_renderer):
    Vendor: Intel (0x8086)
    Device: Mesa Intel(R) UHD Graphics 620 (KBL GT2) (0x5917)
    Version: 23.2.1
`
	device, err := ParseGLXInfoDevice(out)
	require.NoError(t, err)
	assert.Equal(t, "Device: Mesa Intel(R) UHD Graphics 620 (KBL GT2) (0x5917)", device)

	_, err = ParseGLXInfoDevice("name of display: :0\n")
	assert.ErrorIs(t, err, reading.ErrShape)

	_, err = ParseGLXInfoDevice("   \n")
	assert.ErrorIs(t, err, reading.ErrShape)
}

func TestNewStrategies(t *testing.T) {
	t.Parallel()

	runner := command.RunnerFunc(func(context.Context, string, ...string) ([]byte, error) { return nil, nil })

	strategies, err := NewStrategies(DefaultStrategies, runner, StrategyConfig{})
	require.NoError(t, err)
	require.Len(t, strategies, 3)
	assert.Equal(t, StrategyNvidia, strategies[0].Name())
	assert.Equal(t, StrategyGLXInfo, strategies[1].Name())
	assert.Equal(t, StrategyDRM, strategies[2].Name())

	_, err = NewStrategies([]string{"nvidia", "opencl"}, runner, StrategyConfig{})
	assert.ErrorContains(t, err, "unknown gpu strategy")

	_, err = NewStrategies([]string{"glxinfo", " GLXINFO"}, runner, StrategyConfig{})
	assert.ErrorContains(t, err, "listed twice")

	_, err = NewStrategies(nil, runner, StrategyConfig{})
	assert.Error(t, err)
}

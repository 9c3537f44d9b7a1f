package reading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "inside", in: 42.5, want: 42.5},
		{name: "negative", in: -3, want: 0},
		{name: "over", in: 100.0001, want: 100},
		{name: "nan", in: math.NaN(), want: 0},
		{name: "bounds", in: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClampPct(tt.in))
		})
	}
}

func TestGPUMemoryPct(t *testing.T) {
	t.Parallel()

	pct, ok := GPU{Kind: GPUKindNvidia, MemoryUsedMB: 512, MemoryTotalMB: 4096}.MemoryPct()
	require.True(t, ok)
	assert.InDelta(t, 12.5, pct, 1e-9)

	_, ok = GPU{Kind: GPUKindGeneric, Description: "Device: llvmpipe"}.MemoryPct()
	assert.False(t, ok)

	_, ok = GPU{Kind: GPUKindNvidia}.MemoryPct()
	assert.False(t, ok, "zero total must not divide")
}

func TestProbeErrorMatching(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 1")
	err := fmt.Errorf("sample thermal: %w", Invocation("sensors", cause))

	assert.ErrorIs(t, err, ErrInvocation)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrShape)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "sensors", probeErr.Source)
	assert.Equal(t, "sensors: invocation failed: exit status 1", probeErr.Error())
}

func TestReason(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Reason(nil))
	assert.Equal(t, "empty output", Reason(Shape("sensors", "empty output")))
	assert.Equal(t, "timed out", Reason(Invocation("nvidia-smi", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", Reason(fmt.Errorf("wrap: %w", context.Canceled)))
	assert.Equal(t, "plain", Reason(errors.New("plain")))
}

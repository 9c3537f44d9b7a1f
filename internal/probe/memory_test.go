package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/corebuddy/internal/reading"
)

func TestMemoryProbeDerivesPercent(t *testing.T) {
	t.Parallel()

	probe := NewMemoryProbe(func(context.Context) (*mem.VirtualMemoryStat, error) {
		// UsedPercent is deliberately inconsistent; it must be ignored.
		return &mem.VirtualMemoryStat{Used: 2147483648, Total: 8589934592, UsedPercent: 31.7}, nil
	})

	got, err := probe.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reading.StatusPresent, got.Status)
	assert.Equal(t, uint64(2147483648), got.UsedBytes)
	assert.Equal(t, uint64(8589934592), got.TotalBytes)
	assert.Equal(t, 25.0, got.UsedPct)
}

func TestMemoryProbeErrors(t *testing.T) {
	t.Parallel()

	zero := NewMemoryProbe(func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{}, nil
	})
	_, err := zero.Sample(context.Background())
	assert.ErrorIs(t, err, reading.ErrShape)

	failing := NewMemoryProbe(func(context.Context) (*mem.VirtualMemoryStat, error) {
		return nil, errors.New("no meminfo")
	})
	_, err = failing.Sample(context.Background())
	assert.ErrorIs(t, err, reading.ErrInvocation)
}

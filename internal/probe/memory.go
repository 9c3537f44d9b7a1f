package probe

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/skobkin/corebuddy/internal/reading"
)

// VirtualMemoryFunc reads system memory statistics.
type VirtualMemoryFunc func(ctx context.Context) (*mem.VirtualMemoryStat, error)

// MemoryProbe reports RAM usage. The percentage is derived from used and
// total bytes so the three fields always agree.
type MemoryProbe struct {
	virtualMemory VirtualMemoryFunc
}

// NewMemoryProbe builds a probe. A nil function reads from the OS.
func NewMemoryProbe(virtualMemory VirtualMemoryFunc) *MemoryProbe {
	if virtualMemory == nil {
		virtualMemory = mem.VirtualMemoryWithContext
	}
	return &MemoryProbe{virtualMemory: virtualMemory}
}

func (p *MemoryProbe) Sample(ctx context.Context) (reading.Memory, error) {
	stat, err := p.virtualMemory(ctx)
	if err != nil {
		return reading.Memory{}, reading.Invocation("memory", err)
	}
	if stat == nil || stat.Total == 0 {
		return reading.Memory{}, reading.Shape("memory", "total memory is zero")
	}
	return reading.Memory{
		Status:     reading.StatusPresent,
		UsedBytes:  stat.Used,
		TotalBytes: stat.Total,
		UsedPct:    reading.ClampPct(float64(stat.Used) / float64(stat.Total) * 100),
	}, nil
}

package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/skobkin/corebuddy/internal/reading"
)

// TimesFunc reads cumulative CPU times, aggregated or per core.
type TimesFunc func(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error)

// CPUProbe measures utilization as the busy share of CPU time elapsed over a
// fixed window. The core count is fixed by the first successful sample.
// Sample must not be called concurrently with itself.
type CPUProbe struct {
	window time.Duration
	times  TimesFunc
	cores  int
}

// NewCPUProbe builds a probe. A nil times function reads from the OS.
func NewCPUProbe(window time.Duration, times TimesFunc) (*CPUProbe, error) {
	if window <= 0 {
		return nil, fmt.Errorf("cpu window must be > 0")
	}
	if times == nil {
		times = cpu.TimesWithContext
	}
	return &CPUProbe{window: window, times: times}, nil
}

// Cores returns the fixed core count, zero before the first sample.
func (p *CPUProbe) Cores() int {
	return p.cores
}

// Sample returns the aggregate and per-core busy percentages. When only the
// per-core part fails, the aggregate is still returned as a present reading
// together with the error.
func (p *CPUProbe) Sample(ctx context.Context) (reading.CPU, error) {
	totalBefore, coresBefore, err := p.read(ctx)
	if err != nil {
		return reading.CPU{}, err
	}

	timer := time.NewTimer(p.window)
	select {
	case <-ctx.Done():
		timer.Stop()
		return reading.CPU{}, reading.Invocation("cpu", ctx.Err())
	case <-timer.C:
	}

	totalAfter, coresAfter, err := p.read(ctx)
	if err != nil {
		return reading.CPU{}, err
	}

	result := reading.CPU{
		Status:   reading.StatusPresent,
		TotalPct: busyPct(totalBefore, totalAfter),
	}

	if coresBefore == nil || coresAfter == nil {
		result.PerCoreReason = "per-core times unavailable"
		return result, reading.Invocation("cpu", fmt.Errorf("per-core times unavailable"))
	}
	if len(coresBefore) != len(coresAfter) {
		return unstableCores(result, len(coresBefore), len(coresAfter))
	}
	if p.cores == 0 {
		p.cores = len(coresAfter)
	}
	if len(coresAfter) != p.cores {
		return p.degrade(result, len(coresAfter))
	}

	result.PerCorePct = make([]float64, len(coresAfter))
	for i := range coresAfter {
		result.PerCorePct[i] = busyPct(coresBefore[i], coresAfter[i])
	}
	return result, nil
}

func (p *CPUProbe) degrade(result reading.CPU, got int) (reading.CPU, error) {
	err := fmt.Errorf("%w: expected %d cores, got %d", reading.ErrCoreCountChanged, p.cores, got)
	result.PerCoreReason = err.Error()
	return result, err
}

func unstableCores(result reading.CPU, before, after int) (reading.CPU, error) {
	err := fmt.Errorf("%w: per-core count unstable within window (%d before, %d after)", reading.ErrCoreCountChanged, before, after)
	result.PerCoreReason = err.Error()
	return result, err
}

// read returns the aggregate times and, when available, per-core times.
// A per-core failure is reported as nil cores, not as an error.
func (p *CPUProbe) read(ctx context.Context) (cpu.TimesStat, []cpu.TimesStat, error) {
	aggregate, err := p.times(ctx, false)
	if err != nil {
		return cpu.TimesStat{}, nil, reading.Invocation("cpu", err)
	}
	if len(aggregate) == 0 {
		return cpu.TimesStat{}, nil, reading.Shape("cpu", "no aggregate cpu times")
	}
	cores, err := p.times(ctx, true)
	if err != nil || len(cores) == 0 {
		cores = nil
	}
	return aggregate[0], cores, nil
}

func busyPct(before, after cpu.TimesStat) float64 {
	total := cpuTotal(after) - cpuTotal(before)
	if total <= 0 {
		return 0
	}
	idle := (after.Idle + after.Iowait) - (before.Idle + before.Iowait)
	return reading.ClampPct(100 * (total - idle) / total)
}

// cpuTotal excludes guest time, which Linux already counts in user time.
func cpuTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
}

// Package display renders snapshot readings as the short text lines shown
// by view layers. It reads raw numeric fields only.
package display

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/skobkin/corebuddy/internal/reading"
	"github.com/skobkin/corebuddy/internal/sampler"
)

const (
	notDetected = "[Not Detected]"
	unavailable = "[Unavailable]"
)

// Percent formats a percentage with one decimal.
func Percent(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64) + "%"
}

// CPUTotal renders the aggregate CPU line.
func CPUTotal(cpu reading.CPU) string {
	if cpu.Status != reading.StatusPresent {
		return "Total CPU Usage: " + unavailableWith(cpu.Reason)
	}
	return "Total CPU Usage: " + Percent(cpu.TotalPct)
}

// Cores renders one line per core, or a single line explaining why per-core
// values are missing.
func Cores(cpu reading.CPU) []string {
	if cpu.Status != reading.StatusPresent {
		return nil
	}
	if cpu.PerCorePct == nil {
		return []string{"Per-core: " + unavailableWith(cpu.PerCoreReason)}
	}
	lines := make([]string, len(cpu.PerCorePct))
	for i, pct := range cpu.PerCorePct {
		lines[i] = fmt.Sprintf("Core %d: %s", i, Percent(pct))
	}
	return lines
}

// Memory renders the RAM line, e.g. "RAM Usage: 2.0 GiB / 8.0 GiB (25.0%)".
func Memory(memory reading.Memory) string {
	if memory.Status != reading.StatusPresent {
		return "RAM Usage: " + unavailableWith(memory.Reason)
	}
	return fmt.Sprintf("RAM Usage: %s / %s (%s)",
		humanize.IBytes(memory.UsedBytes), humanize.IBytes(memory.TotalBytes), Percent(memory.UsedPct))
}

// Thermal renders the temperature line.
func Thermal(text reading.Text) string {
	return "Temperature: " + textValue(text)
}

// Fan renders the fan summary line.
func Fan(text reading.Text) string {
	return "Fan: " + textValue(text)
}

// GPU renders the GPU line, e.g. "GPU: 37% | 512MB / 4096MB (NVIDIA)".
func GPU(gpu reading.GPU) string {
	switch gpu.Kind {
	case reading.GPUKindNvidia:
		return fmt.Sprintf("GPU: %s%% | %dMB / %dMB (NVIDIA)",
			strconv.FormatFloat(gpu.UtilizationPct, 'f', -1, 64), gpu.MemoryUsedMB, gpu.MemoryTotalMB)
	case reading.GPUKindGeneric:
		return "GPU: " + gpu.Description
	default:
		return "GPU: " + unavailableWith(gpu.Reason)
	}
}

// Summary renders every line of a snapshot in display order.
func Summary(snapshot sampler.Snapshot) []string {
	lines := []string{"Cycle: " + humanize.Comma(int64(snapshot.Cycle)), CPUTotal(snapshot.CPU)}
	lines = append(lines, Cores(snapshot.CPU)...)
	return append(lines,
		Memory(snapshot.Memory),
		Thermal(snapshot.Thermal),
		Fan(snapshot.Fan),
		GPU(snapshot.GPU),
	)
}

func textValue(text reading.Text) string {
	switch {
	case text.Status == reading.StatusPresent:
		return text.Description
	case text.NotDetected():
		return notDetected
	default:
		return unavailableWith(text.Reason)
	}
}

func unavailableWith(reason string) string {
	if reason == "" {
		return unavailable
	}
	return unavailable + " (" + reason + ")"
}

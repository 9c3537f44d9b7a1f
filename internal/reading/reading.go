// Package reading defines the tagged metric readings produced by probes and
// carried in published snapshots.
package reading

import "math"

// Status tags a reading as present or unavailable.
type Status string

const (
	StatusPresent     Status = "present"
	StatusUnavailable Status = "unavailable"
)

// Reasons used when a sensor dump was read but held no matching line.
const (
	ReasonNoTemperature = "no temperature readings"
	ReasonNoFan         = "no fan readings"
)

// NotDetected reports whether an unavailable text reading means the source
// worked but had nothing to report.
func (t Text) NotDetected() bool {
	return t.Status == StatusUnavailable && (t.Reason == ReasonNoTemperature || t.Reason == ReasonNoFan)
}

// CPU holds aggregate and per-core utilization for one sampling window.
// PerCorePct is nil when per-core data could not be reported for the cycle;
// PerCoreReason then explains why.
type CPU struct {
	Status        Status    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	TotalPct      float64   `json:"total_pct"`
	PerCorePct    []float64 `json:"per_core_pct"`
	PerCoreReason string    `json:"per_core_reason,omitempty"`
}

// Memory holds RAM usage. UsedPct is always derived from UsedBytes/TotalBytes.
type Memory struct {
	Status     Status  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	UsedBytes  uint64  `json:"used_bytes"`
	TotalBytes uint64  `json:"total_bytes"`
	UsedPct    float64 `json:"used_pct"`
}

// Text is a free-text diagnostic reading, used for temperature and fan lines.
type Text struct {
	Status      Status `json:"status"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ThermalFan pairs the temperature and fan readings taken from one sensor dump.
type ThermalFan struct {
	Thermal Text `json:"thermal"`
	Fan     Text `json:"fan"`
}

// GPUKind tags which variant a GPU reading holds.
type GPUKind string

const (
	GPUKindNvidia      GPUKind = "nvidia"
	GPUKindGeneric     GPUKind = "generic"
	GPUKindUnavailable GPUKind = "unavailable"
)

// GPU is the resolver result. Numeric fields are set only for GPUKindNvidia,
// Description only for GPUKindGeneric and Reason only for GPUKindUnavailable.
type GPU struct {
	Kind           GPUKind `json:"kind"`
	Strategy       string  `json:"strategy,omitempty"`
	UtilizationPct float64 `json:"utilization_pct"`
	MemoryUsedMB   uint64  `json:"memory_used_mb"`
	MemoryTotalMB  uint64  `json:"memory_total_mb"`
	Description    string  `json:"description,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// MemoryPct returns GPU memory usage as a percentage of the total.
func (g GPU) MemoryPct() (float64, bool) {
	if g.Kind != GPUKindNvidia || g.MemoryTotalMB == 0 {
		return 0, false
	}
	return ClampPct(float64(g.MemoryUsedMB) / float64(g.MemoryTotalMB) * 100), true
}

// Present builds a present text reading.
func Present(description string) Text {
	return Text{Status: StatusPresent, Description: description}
}

// UnavailableText builds an unavailable text reading.
func UnavailableText(reason string) Text {
	return Text{Status: StatusUnavailable, Reason: reason}
}

// UnavailableCPU builds an unavailable CPU reading.
func UnavailableCPU(reason string) CPU {
	return CPU{Status: StatusUnavailable, Reason: reason}
}

// UnavailableMemory builds an unavailable memory reading.
func UnavailableMemory(reason string) Memory {
	return Memory{Status: StatusUnavailable, Reason: reason}
}

// UnavailableGPU builds an unavailable GPU reading.
func UnavailableGPU(reason string) GPU {
	return GPU{Kind: GPUKindUnavailable, Reason: reason}
}

// ClampPct limits a percentage to [0,100].
func ClampPct(value float64) float64 {
	switch {
	case math.IsNaN(value):
		return 0
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}

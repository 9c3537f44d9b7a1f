package sampler

import (
	"slices"
	"time"

	"github.com/skobkin/corebuddy/internal/reading"
)

const reasonAwaitingFirstSample = "awaiting first sample"

// Snapshot is the complete result of one sampling cycle. Snapshots handed
// out by the Manager are copies and may be retained freely.
type Snapshot struct {
	Cycle     uint64         `json:"cycle"`
	Timestamp time.Time      `json:"ts"`
	CPU       reading.CPU    `json:"cpu"`
	Memory    reading.Memory `json:"memory"`
	Thermal   reading.Text   `json:"thermal"`
	Fan       reading.Text   `json:"fan"`
	GPU       reading.GPU    `json:"gpu"`
}

// Placeholder is served until the first cycle publishes.
func Placeholder() Snapshot {
	return Snapshot{
		CPU:     reading.UnavailableCPU(reasonAwaitingFirstSample),
		Memory:  reading.UnavailableMemory(reasonAwaitingFirstSample),
		Thermal: reading.UnavailableText(reasonAwaitingFirstSample),
		Fan:     reading.UnavailableText(reasonAwaitingFirstSample),
		GPU:     reading.UnavailableGPU(reasonAwaitingFirstSample),
	}
}

// IsPlaceholder reports whether no cycle has produced this snapshot yet.
func (s Snapshot) IsPlaceholder() bool {
	return s.Cycle == 0
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	s.CPU.PerCorePct = slices.Clone(s.CPU.PerCorePct)
	return s
}

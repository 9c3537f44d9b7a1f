package httpserver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skobkin/corebuddy/internal/reading"
	"github.com/skobkin/corebuddy/internal/sampler"
)

const bytesPerMiB = 1024 * 1024

type snapshotCollector struct {
	source  SnapshotSource
	metrics []snapshotMetric
}

// snapshotMetric emits zero or more samples for one descriptor. emit takes the
// value followed by the descriptor's variable label values.
type snapshotMetric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	collect   func(snapshot sampler.Snapshot, emit func(value float64, labels ...string))
}

func newSnapshotCollector(source SnapshotSource) prometheus.Collector {
	if source == nil {
		return nil
	}

	desc := func(subsystem, name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, subsystem, name),
			help,
			labels,
			nil,
		)
	}

	collector := &snapshotCollector{source: source}
	collector.metrics = []snapshotMetric{
		{
			desc:      desc("", "reading_available", "Whether the named reading was present in the latest snapshot.", "reading"),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				emit(boolValue(s.CPU.Status == reading.StatusPresent), "cpu")
				emit(boolValue(s.Memory.Status == reading.StatusPresent), "memory")
				emit(boolValue(s.Thermal.Status == reading.StatusPresent), "thermal")
				emit(boolValue(s.Fan.Status == reading.StatusPresent), "fan")
				emit(boolValue(s.GPU.Kind != reading.GPUKindUnavailable), "gpu")
			},
		},
		{
			desc:      desc("cpu", "usage_percent", "Aggregate CPU utilization over the sampling window."),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.CPU.Status == reading.StatusPresent {
					emit(s.CPU.TotalPct)
				}
			},
		},
		{
			desc:      desc("cpu", "core_usage_percent", "Per-core CPU utilization over the sampling window.", "core"),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.CPU.Status != reading.StatusPresent {
					return
				}
				for core, pct := range s.CPU.PerCorePct {
					emit(pct, strconv.Itoa(core))
				}
			},
		},
		{
			desc:      desc("memory", "used_bytes", "RAM in use in bytes."),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.Memory.Status == reading.StatusPresent {
					emit(float64(s.Memory.UsedBytes))
				}
			},
		},
		{
			desc:      desc("memory", "total_bytes", "Total RAM in bytes."),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.Memory.Status == reading.StatusPresent {
					emit(float64(s.Memory.TotalBytes))
				}
			},
		},
		{
			desc:      desc("memory", "usage_percent", "RAM usage percentage."),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.Memory.Status == reading.StatusPresent {
					emit(s.Memory.UsedPct)
				}
			},
		},
		{
			desc:      desc("gpu", "utilization_percent", "GPU utilization reported by the NVIDIA query tool.", "strategy"),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.GPU.Kind == reading.GPUKindNvidia {
					emit(s.GPU.UtilizationPct, s.GPU.Strategy)
				}
			},
		},
		{
			desc:      desc("gpu", "memory_used_bytes", "GPU memory in use in bytes.", "strategy"),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.GPU.Kind == reading.GPUKindNvidia {
					emit(float64(s.GPU.MemoryUsedMB*bytesPerMiB), s.GPU.Strategy)
				}
			},
		},
		{
			desc:      desc("gpu", "memory_total_bytes", "GPU memory capacity in bytes.", "strategy"),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.GPU.Kind == reading.GPUKindNvidia {
					emit(float64(s.GPU.MemoryTotalMB*bytesPerMiB), s.GPU.Strategy)
				}
			},
		},
		{
			desc:      desc("sampler", "cycles_total", "Sampling cycles published since start."),
			valueType: prometheus.CounterValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				emit(float64(s.Cycle))
			},
		},
		{
			desc:      desc("sampler", "snapshot_timestamp_seconds", "Unix timestamp of the latest snapshot."),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if !s.Timestamp.IsZero() {
					emit(float64(s.Timestamp.Unix()))
				}
			},
		},
		{
			desc:      desc("sampler", "snapshot_age_seconds", "Seconds elapsed since the latest snapshot was published."),
			valueType: prometheus.GaugeValue,
			collect: func(s sampler.Snapshot, emit func(float64, ...string)) {
				if s.Timestamp.IsZero() {
					return
				}
				emit(max(time.Since(s.Timestamp).Seconds(), 0))
			},
		},
	}

	return collector
}

func (c *snapshotCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, metric := range c.metrics {
		ch <- metric.desc
	}
}

func (c *snapshotCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.source.Current()
	for _, metric := range c.metrics {
		metric.collect(snapshot, func(value float64, labels ...string) {
			ch <- prometheus.MustNewConstMetric(metric.desc, metric.valueType, value, labels...)
		})
	}
}

func boolValue(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

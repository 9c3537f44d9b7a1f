package gpu

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/skobkin/corebuddy/internal/command"
	"github.com/skobkin/corebuddy/internal/reading"
)

var nvidiaQueryArgs = []string{
	"--query-gpu=utilization.gpu,memory.used,memory.total",
	"--format=csv,noheader,nounits",
}

// NvidiaStrategy queries utilization and memory through nvidia-smi.
type NvidiaStrategy struct {
	runner  command.Runner
	command string
}

// NewNvidiaStrategy builds the strategy; an empty name means "nvidia-smi".
func NewNvidiaStrategy(runner command.Runner, name string) *NvidiaStrategy {
	if name == "" {
		name = "nvidia-smi"
	}
	return &NvidiaStrategy{runner: runner, command: name}
}

func (s *NvidiaStrategy) Name() string { return StrategyNvidia }

func (s *NvidiaStrategy) Query(ctx context.Context) (reading.GPU, error) {
	out, err := s.runner.Run(ctx, s.command, nvidiaQueryArgs...)
	if err != nil {
		return reading.GPU{}, err
	}
	gpu, err := ParseNvidiaCSV(string(out))
	if err != nil {
		return reading.GPU{}, err
	}
	gpu.Strategy = StrategyNvidia
	return gpu, nil
}

// ParseNvidiaCSV parses the first record of a headerless, unitless
// "utilization, memory.used, memory.total" reply. Further records (other
// GPUs) are ignored.
func ParseNvidiaCSV(raw string) (reading.GPU, error) {
	const source = "nvidia-smi"

	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return reading.GPU{}, reading.Shape(source, "empty output")
	}
	if err != nil {
		return reading.GPU{}, reading.Shape(source, "malformed csv: %v", err)
	}
	if len(record) != 3 {
		return reading.GPU{}, reading.Shape(source, "expected 3 fields, got %d", len(record))
	}

	utilization, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil {
		return reading.GPU{}, reading.Shape(source, "utilization %q is not numeric", record[0])
	}
	if utilization < 0 || utilization > 100 {
		return reading.GPU{}, reading.Shape(source, "utilization %v out of range", utilization)
	}
	used, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return reading.GPU{}, reading.Shape(source, "memory.used %q is not numeric", record[1])
	}
	total, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 64)
	if err != nil {
		return reading.GPU{}, reading.Shape(source, "memory.total %q is not numeric", record[2])
	}

	return reading.GPU{
		Kind:           reading.GPUKindNvidia,
		UtilizationPct: utilization,
		MemoryUsedMB:   used,
		MemoryTotalMB:  total,
	}, nil
}

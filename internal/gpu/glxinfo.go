package gpu

import (
	"bufio"
	"context"
	"strings"

	"github.com/skobkin/corebuddy/internal/command"
	"github.com/skobkin/corebuddy/internal/reading"
)

// GLXInfoStrategy reports the renderer device line printed by glxinfo.
type GLXInfoStrategy struct {
	runner  command.Runner
	command string
}

// NewGLXInfoStrategy builds the strategy; an empty name means "glxinfo".
func NewGLXInfoStrategy(runner command.Runner, name string) *GLXInfoStrategy {
	if name == "" {
		name = "glxinfo"
	}
	return &GLXInfoStrategy{runner: runner, command: name}
}

func (s *GLXInfoStrategy) Name() string { return StrategyGLXInfo }

func (s *GLXInfoStrategy) Query(ctx context.Context) (reading.GPU, error) {
	out, err := s.runner.Run(ctx, s.command, "-B")
	if err != nil {
		return reading.GPU{}, err
	}
	device, err := ParseGLXInfoDevice(string(out))
	if err != nil {
		return reading.GPU{}, err
	}
	return reading.GPU{
		Kind:        reading.GPUKindGeneric,
		Strategy:    StrategyGLXInfo,
		Description: device,
	}, nil
}

// ParseGLXInfoDevice returns the first trimmed line containing "Device".
func ParseGLXInfoDevice(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", reading.Shape("glxinfo", "empty output")
	}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "Device") {
			return line, nil
		}
	}
	return "", reading.Shape("glxinfo", "no device line")
}

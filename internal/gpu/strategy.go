// Package gpu resolves the host GPU reading through an ordered list of
// query strategies.
package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skobkin/corebuddy/internal/command"
	"github.com/skobkin/corebuddy/internal/reading"
)

// Strategy names accepted by NewStrategies.
const (
	StrategyNvidia  = "nvidia"
	StrategyGLXInfo = "glxinfo"
	StrategyDRM     = "drm"
)

// DefaultStrategies is the attempt order used when none is configured.
var DefaultStrategies = []string{StrategyNvidia, StrategyGLXInfo, StrategyDRM}

// Strategy is one way of querying the GPU. A failed query returns an error
// wrapping reading.ErrInvocation or reading.ErrShape.
type Strategy interface {
	Name() string
	Query(ctx context.Context) (reading.GPU, error)
}

// StrategyConfig carries the inputs individual strategies need.
type StrategyConfig struct {
	NvidiaSMICommand string
	GLXInfoCommand   string
	SysfsRoot        string
	Logger           *slog.Logger
}

// NewStrategies builds strategies in the given order. Unknown or repeated
// names are rejected.
func NewStrategies(names []string, runner command.Runner, cfg StrategyConfig) ([]Strategy, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one gpu strategy is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("command runner is required")
	}

	seen := make(map[string]struct{}, len(names))
	strategies := make([]Strategy, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("gpu strategy %q listed twice", name)
		}
		seen[name] = struct{}{}

		switch name {
		case StrategyNvidia:
			strategies = append(strategies, NewNvidiaStrategy(runner, cfg.NvidiaSMICommand))
		case StrategyGLXInfo:
			strategies = append(strategies, NewGLXInfoStrategy(runner, cfg.GLXInfoCommand))
		case StrategyDRM:
			strategies = append(strategies, NewDRMStrategy(cfg.SysfsRoot, cfg.Logger))
		default:
			return nil, fmt.Errorf("unknown gpu strategy %q", raw)
		}
	}
	return strategies, nil
}

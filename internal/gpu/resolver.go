package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skobkin/corebuddy/internal/reading"
)

// Resolver tries its strategies in order and returns the first success.
// Nothing is cached between calls; every Resolve re-probes from the start.
type Resolver struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

// NewResolver builds a resolver. timeout bounds each strategy attempt; zero
// leaves attempts bounded only by the caller's context.
func NewResolver(strategies []Strategy, timeout time.Duration, logger *slog.Logger) (*Resolver, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("at least one strategy is required")
	}
	if timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		strategies: strategies,
		timeout:    timeout,
		logger:     logger.With("component", "gpu_resolver"),
	}, nil
}

// Strategies returns the configured strategy names in attempt order.
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve never fails: when every strategy fails the result is an
// unavailable reading listing each strategy's reason.
func (r *Resolver) Resolve(ctx context.Context) reading.GPU {
	reasons := make([]string, 0, len(r.strategies))
	for _, strategy := range r.strategies {
		if err := ctx.Err(); err != nil {
			return reading.UnavailableGPU(reading.Reason(err))
		}

		gpu, err := r.attempt(ctx, strategy)
		if err == nil {
			return gpu
		}
		r.logger.Debug("gpu strategy failed", "strategy", strategy.Name(), "err", err)
		reasons = append(reasons, strategy.Name()+": "+reading.Reason(err))
	}
	return reading.UnavailableGPU(strings.Join(reasons, "; "))
}

func (r *Resolver) attempt(ctx context.Context, strategy Strategy) (reading.GPU, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	gpu, err := strategy.Query(ctx)
	if err != nil {
		return reading.GPU{}, err
	}
	if gpu.Strategy == "" {
		gpu.Strategy = strategy.Name()
	}
	if gpu.Kind == reading.GPUKindNvidia {
		gpu.UtilizationPct = reading.ClampPct(gpu.UtilizationPct)
	}
	return gpu, nil
}

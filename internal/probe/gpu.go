package probe

import (
	"context"

	"github.com/skobkin/corebuddy/internal/reading"
)

// Resolver produces a GPU reading and never fails.
type Resolver interface {
	Resolve(ctx context.Context) reading.GPU
}

// GPUProbe adapts a Resolver to the Probe interface.
type GPUProbe struct {
	resolver Resolver
}

func NewGPUProbe(resolver Resolver) *GPUProbe {
	return &GPUProbe{resolver: resolver}
}

func (p *GPUProbe) Sample(ctx context.Context) (reading.GPU, error) {
	return p.resolver.Resolve(ctx), nil
}

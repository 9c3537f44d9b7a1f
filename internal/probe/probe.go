// Package probe implements the per-cycle metric probes.
package probe

import "context"

// Probe samples one metric. Sample may block for at most a measurement
// window or a command timeout and must honour ctx cancellation.
type Probe[T any] interface {
	Sample(ctx context.Context) (T, error)
}

// Func adapts a function to the Probe interface.
type Func[T any] func(ctx context.Context) (T, error)

// Sample calls f.
func (f Func[T]) Sample(ctx context.Context) (T, error) {
	return f(ctx)
}

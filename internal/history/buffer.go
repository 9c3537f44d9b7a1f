// Package history keeps fixed-capacity rolling series of samples.
package history

import "fmt"

// DefaultCapacity is the number of samples retained when no capacity is
// configured.
const DefaultCapacity = 60

// Buffer is a fixed-capacity ring of float64 values. Once full, each push
// evicts the oldest value. Buffer is not safe for concurrent use; the
// sampler guards it with its own lock.
type Buffer struct {
	data  []float64
	head  int
	count int
}

// New creates a buffer. A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]float64, capacity)}
}

// Push appends value, overwriting the oldest value when full.
func (b *Buffer) Push(value float64) {
	b.data[b.head] = value
	b.head = (b.head + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
}

// Values returns a copy of the retained values, oldest first.
func (b *Buffer) Values() []float64 {
	out := make([]float64, b.count)
	start := (b.head - b.count + len(b.data)) % len(b.data)
	for i := range b.count {
		out[i] = b.data[(start+i)%len(b.data)]
	}
	return out
}

// Len returns the number of retained values.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Last returns the most recently pushed value.
func (b *Buffer) Last() (float64, bool) {
	if b.count == 0 {
		return 0, false
	}
	return b.data[(b.head-1+len(b.data))%len(b.data)], true
}

func (b *Buffer) String() string {
	return fmt.Sprintf("history.Buffer(len=%d cap=%d)", b.count, len(b.data))
}

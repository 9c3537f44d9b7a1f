package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skobkin/corebuddy/internal/history"
	"github.com/skobkin/corebuddy/internal/probe"
	"github.com/skobkin/corebuddy/internal/reading"
)

// Probes is the set of metric probes sampled every cycle.
type Probes struct {
	CPU        probe.Probe[reading.CPU]
	Memory     probe.Probe[reading.Memory]
	ThermalFan probe.Probe[reading.ThermalFan]
	GPU        probe.Probe[reading.GPU]
}

func (p Probes) validate() error {
	var errs []error
	if p.CPU == nil {
		errs = append(errs, errors.New("cpu probe is required"))
	}
	if p.Memory == nil {
		errs = append(errs, errors.New("memory probe is required"))
	}
	if p.ThermalFan == nil {
		errs = append(errs, errors.New("thermal/fan probe is required"))
	}
	if p.GPU == nil {
		errs = append(errs, errors.New("gpu probe is required"))
	}
	return errors.Join(errs...)
}

// Manager runs the sampling loop, owns the current snapshot and the per-core
// histories, and fans out every published snapshot to subscribers. Only the
// Run goroutine writes; all read methods return copies.
type Manager struct {
	interval        time.Duration
	historyCapacity int
	probes          Probes
	logger          *slog.Logger

	state   atomic.Int32
	running atomic.Bool

	mu          sync.RWMutex
	current     Snapshot
	cycle       uint64
	histories   []*history.Buffer
	subscribers map[*subscriber]struct{}
	closed      bool
	closeOnce   sync.Once
}

// NewManager builds a Manager. A non-positive history capacity selects
// history.DefaultCapacity.
func NewManager(interval time.Duration, historyCapacity int, probes Probes, logger *slog.Logger) (*Manager, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be > 0")
	}
	if err := probes.validate(); err != nil {
		return nil, err
	}
	if historyCapacity <= 0 {
		historyCapacity = history.DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		interval:        interval,
		historyCapacity: historyCapacity,
		probes:          probes,
		logger:          logger.With("component", "sampler_manager"),
		current:         Placeholder(),
		subscribers:     make(map[*subscriber]struct{}),
	}, nil
}

// Run samples once immediately and then on every tick until ctx is
// canceled. A cycle interrupted by cancellation is discarded. Run may be
// called only once per Manager.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("sampler already running")
	}
	m.logger.Info("sampler started", "interval", m.interval, "history_capacity", m.historyCapacity)

	m.runCycle(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sampler stopping", "reason", ctx.Err())
			return m.Close()
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

// Current returns the latest snapshot, or the placeholder before the first
// cycle has published.
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// History returns the retained values for core, oldest first. ok is false
// for an unknown core or before per-core data has been seen.
func (m *Manager) History(core int) ([]float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if core < 0 || core >= len(m.histories) {
		return nil, false
	}
	return m.histories[core].Values(), true
}

// Histories returns every core's history indexed by core.
func (m *Manager) Histories() [][]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]float64, len(m.histories))
	for i, buf := range m.histories {
		out[i] = buf.Values()
	}
	return out
}

// Ready reports whether at least one cycle has been published.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycle > 0
}

// State returns the current loop state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Interval returns the configured sampling interval.
func (m *Manager) Interval() time.Duration {
	return m.interval
}

// HistoryCapacity returns the per-core history capacity.
func (m *Manager) HistoryCapacity() int {
	return m.historyCapacity
}

// Subscribe registers a listener for published snapshots. The latest
// snapshot, if any, is delivered immediately. A slow listener only ever
// sees the newest pending snapshot.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := newSubscriber()
	if m.closed {
		sub.close()
		return sub.channel(), func() {}
	}
	m.subscribers[sub] = struct{}{}

	if m.cycle > 0 {
		sub.send(m.current.Clone())
	}

	unsubscribe := func() {
		m.removeSubscriber(sub)
	}
	return sub.channel(), unsubscribe
}

// Close stops delivery to subscribers and marks the loop stopped. Safe for
// repeated use.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.state.Store(int32(StateStopped))

		m.mu.Lock()
		m.closed = true
		subs := m.subscribers
		m.subscribers = make(map[*subscriber]struct{})
		m.mu.Unlock()

		for sub := range subs {
			sub.close()
		}
	})
	return nil
}

type cycleResult struct {
	cpu        reading.CPU
	cpuErr     error
	memory     reading.Memory
	memoryErr  error
	thermalFan reading.ThermalFan
	thermalErr error
	gpu        reading.GPU
	gpuErr     error
}

func (m *Manager) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	m.setState(StateSampling)
	started := time.Now()
	result := m.sampleAll(ctx)

	if ctx.Err() != nil {
		m.logger.Debug("cycle discarded", "reason", ctx.Err())
		m.setState(StateIdle)
		return
	}

	m.setState(StatePublishing)
	snapshot := m.fold(result)
	snapshot.Timestamp = time.Now()
	m.publish(snapshot)
	m.setState(StateIdle)

	m.logger.Debug("cycle published", "cycle", snapshot.Cycle, "elapsed", time.Since(started))
}

// sampleAll runs every probe concurrently. Probe errors are collected into
// the result rather than returned, so no failure cancels its siblings.
func (m *Manager) sampleAll(ctx context.Context) cycleResult {
	var (
		result cycleResult
		group  errgroup.Group
	)
	group.Go(func() error {
		result.cpu, result.cpuErr = m.probes.CPU.Sample(ctx)
		return nil
	})
	group.Go(func() error {
		result.memory, result.memoryErr = m.probes.Memory.Sample(ctx)
		return nil
	})
	group.Go(func() error {
		result.thermalFan, result.thermalErr = m.probes.ThermalFan.Sample(ctx)
		return nil
	})
	group.Go(func() error {
		result.gpu, result.gpuErr = m.probes.GPU.Sample(ctx)
		return nil
	})
	_ = group.Wait()
	return result
}

func (m *Manager) fold(result cycleResult) Snapshot {
	snapshot := Snapshot{
		CPU:     result.cpu,
		Memory:  result.memory,
		Thermal: result.thermalFan.Thermal,
		Fan:     result.thermalFan.Fan,
		GPU:     result.gpu,
	}

	switch {
	case result.cpuErr == nil:
	case result.cpu.Status == reading.StatusPresent:
		if errors.Is(result.cpuErr, reading.ErrCoreCountChanged) {
			m.logger.Warn("cpu core count changed, reporting aggregate only", "err", result.cpuErr)
		} else {
			m.logger.Debug("per-core cpu sample failed", "err", result.cpuErr)
		}
	default:
		m.logger.Debug("cpu probe failed", "err", result.cpuErr)
		snapshot.CPU = reading.UnavailableCPU(reading.Reason(result.cpuErr))
	}

	if result.memoryErr != nil {
		m.logger.Debug("memory probe failed", "err", result.memoryErr)
		snapshot.Memory = reading.UnavailableMemory(reading.Reason(result.memoryErr))
	}

	if result.thermalErr != nil {
		m.logger.Debug("thermal probe failed", "err", result.thermalErr)
		reason := reading.Reason(result.thermalErr)
		snapshot.Thermal = reading.UnavailableText(reason)
		snapshot.Fan = reading.UnavailableText(reason)
	}

	if result.gpuErr != nil {
		m.logger.Debug("gpu probe failed", "err", result.gpuErr)
		snapshot.GPU = reading.UnavailableGPU(reading.Reason(result.gpuErr))
	}

	return snapshot
}

func (m *Manager) publish(snapshot Snapshot) {
	m.mu.Lock()
	m.cycle++
	snapshot.Cycle = m.cycle

	perCore := snapshot.CPU.PerCorePct
	if len(m.histories) == 0 && len(perCore) > 0 {
		m.histories = make([]*history.Buffer, len(perCore))
		for i := range m.histories {
			m.histories[i] = history.New(m.historyCapacity)
		}
	}
	if len(perCore) > 0 && len(perCore) == len(m.histories) {
		for i, value := range perCore {
			m.histories[i].Push(value)
		}
	}

	m.current = snapshot.Clone()

	targetSubs := make([]*subscriber, 0, len(m.subscribers))
	for sub := range m.subscribers {
		targetSubs = append(targetSubs, sub)
	}
	m.mu.Unlock()

	for _, sub := range targetSubs {
		sub.send(snapshot.Clone())
	}
}

// setState moves the loop to next unless it has already stopped.
func (m *Manager) setState(next State) {
	for {
		current := m.state.Load()
		if State(current) == StateStopped {
			return
		}
		if m.state.CompareAndSwap(current, int32(next)) {
			return
		}
	}
}

func (m *Manager) removeSubscriber(sub *subscriber) {
	m.mu.Lock()
	delete(m.subscribers, sub)
	m.mu.Unlock()
	sub.close()
}

type subscriber struct {
	ch     chan Snapshot
	mu     sync.Mutex
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{
		ch: make(chan Snapshot, 1),
	}
}

func (s *subscriber) channel() <-chan Snapshot {
	return s.ch
}

func (s *subscriber) send(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- snapshot:
		return
	default:
		// Drop oldest to make room for the new snapshot.
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- snapshot:
		default:
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.ch)
	s.closed = true
}

package bus

import (
	"time"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
	"livebus/internal/livebus/metrics"
)

// busStats is implemented by the core Bus. It lets the metrics decorator
// export gauge values without widening the livebus.Bus contract.
type busStats interface {
	Observers() int
	ActiveObservers() int
	PendingEvents() int
}

// MetricsBus wraps a livebus.Bus with metrics collection
// Layer order: TracedBus -> MetricsBus -> Bus (real thing)
type MetricsBus[T any] struct {
	name     string
	bus      livebus.Bus[T]
	stats    busStats
	registry *metrics.Registry
}

// NewMetricsBus creates a new instrumented bus
func NewMetricsBus[T any](name string, b livebus.Bus[T], registry *metrics.Registry) livebus.Bus[T] {
	stats, _ := b.(busStats)
	return &MetricsBus[T]{
		name:     name,
		bus:      b,
		stats:    stats,
		registry: registry,
	}
}

// Observe implements livebus.Bus.Observe with metrics collection
func (m *MetricsBus[T]) Observe(owner lifecycle.Owner, observer livebus.EventObserver[T]) error {
	err := m.bus.Observe(owner, observer)

	m.registry.RecordObserve(m.name, "lifecycle", err)
	m.updateGauges()

	return err
}

// ObserveForever implements livebus.Bus.ObserveForever with metrics collection
func (m *MetricsBus[T]) ObserveForever(observer livebus.EventObserver[T]) error {
	err := m.bus.ObserveForever(observer)

	m.registry.RecordObserve(m.name, "forever", err)
	m.updateGauges()

	return err
}

// RemoveObserver implements livebus.Bus.RemoveObserver with metrics collection
func (m *MetricsBus[T]) RemoveObserver(observer livebus.EventObserver[T]) error {
	err := m.bus.RemoveObserver(observer)

	m.registry.RecordRemove(m.name, "observer", err)
	m.updateGauges()

	return err
}

// RemoveObservers implements livebus.Bus.RemoveObservers with metrics collection
func (m *MetricsBus[T]) RemoveObservers(owner lifecycle.Owner) error {
	err := m.bus.RemoveObservers(owner)

	m.registry.RecordRemove(m.name, "owner", err)
	m.updateGauges()

	return err
}

// Send implements livebus.Bus.Send with metrics collection. The core only
// logs drops, so the decorator detects them by checking for observers
// before delegating.
func (m *MetricsBus[T]) Send(event T) error {
	start := time.Now()
	dropped := !m.bus.HasObservers()

	err := m.bus.Send(event)
	duration := time.Since(start)

	m.registry.RecordSend(m.name, dropped, duration, err)
	m.updateGauges()

	return err
}

// Post implements livebus.Bus.Post with metrics collection. The eventual
// Send runs on the main context against the core bus, so only the post
// itself is counted here.
func (m *MetricsBus[T]) Post(event T) {
	m.registry.RecordPost(m.name)
	m.bus.Post(event)
}

// HasObservers implements livebus.Bus.HasObservers
func (m *MetricsBus[T]) HasObservers() bool {
	return m.bus.HasObservers()
}

// HasActiveObservers implements livebus.Bus.HasActiveObservers
func (m *MetricsBus[T]) HasActiveObservers() bool {
	return m.bus.HasActiveObservers()
}

func (m *MetricsBus[T]) updateGauges() {
	if m.stats == nil {
		return
	}
	m.registry.UpdateBusState(m.name, m.stats.Observers(), m.stats.ActiveObservers(), m.stats.PendingEvents())
}

package bus

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
	"livebus/internal/livebus/tracing"
)

// TracedBus wraps a livebus.Bus with distributed tracing
// Layer order: TracedBus -> MetricsBus -> Bus (real thing)
type TracedBus[T any] struct {
	name   string
	bus    livebus.Bus[T]
	tracer *tracing.Tracer
}

// NewTracedBus creates a new traced bus that wraps a metrics bus
func NewTracedBus[T any](name string, b livebus.Bus[T], tracer *tracing.Tracer) livebus.Bus[T] {
	return &TracedBus[T]{
		name:   name,
		bus:    b,
		tracer: tracer,
	}
}

// Observe implements livebus.Bus.Observe with distributed tracing
func (t *TracedBus[T]) Observe(owner lifecycle.Owner, observer livebus.EventObserver[T]) error {
	ctx, span := t.tracer.StartSpan(context.Background(), "bus.observe")
	defer span.End()

	span.SetAttributes(t.tracer.ObserverAttributes(t.name, "lifecycle")...)

	err := t.bus.Observe(owner, observer)

	t.finish(ctx, err)
	span.SetAttributes(t.tracer.ErrorAttributes(err)...)

	return err
}

// ObserveForever implements livebus.Bus.ObserveForever with distributed tracing
func (t *TracedBus[T]) ObserveForever(observer livebus.EventObserver[T]) error {
	ctx, span := t.tracer.StartSpan(context.Background(), "bus.observe_forever")
	defer span.End()

	span.SetAttributes(t.tracer.ObserverAttributes(t.name, "forever")...)

	err := t.bus.ObserveForever(observer)

	t.finish(ctx, err)
	span.SetAttributes(t.tracer.ErrorAttributes(err)...)

	return err
}

// RemoveObserver implements livebus.Bus.RemoveObserver with distributed tracing
func (t *TracedBus[T]) RemoveObserver(observer livebus.EventObserver[T]) error {
	ctx, span := t.tracer.StartSpan(context.Background(), "bus.remove_observer")
	defer span.End()

	span.SetAttributes(t.tracer.BusAttributes(t.name)...)

	err := t.bus.RemoveObserver(observer)

	t.finish(ctx, err)
	span.SetAttributes(t.tracer.ErrorAttributes(err)...)

	return err
}

// RemoveObservers implements livebus.Bus.RemoveObservers with distributed tracing
func (t *TracedBus[T]) RemoveObservers(owner lifecycle.Owner) error {
	ctx, span := t.tracer.StartSpan(context.Background(), "bus.remove_observers")
	defer span.End()

	span.SetAttributes(t.tracer.BusAttributes(t.name)...)

	err := t.bus.RemoveObservers(owner)

	t.finish(ctx, err)
	span.SetAttributes(t.tracer.ErrorAttributes(err)...)

	return err
}

// Send implements livebus.Bus.Send with distributed tracing
func (t *TracedBus[T]) Send(event T) error {
	ctx, span := t.tracer.StartSpan(context.Background(), "bus.send")
	defer span.End()

	span.SetAttributes(t.tracer.EventAttributes(t.name, event)...)

	err := t.bus.Send(event)

	t.finish(ctx, err)
	span.SetAttributes(t.tracer.ErrorAttributes(err)...)

	return err
}

// Post implements livebus.Bus.Post with distributed tracing. The span only
// covers the enqueue; the eventual Send runs on the main context.
func (t *TracedBus[T]) Post(event T) {
	_, span := t.tracer.StartSpan(context.Background(), "bus.post")
	defer span.End()

	span.SetAttributes(t.tracer.EventAttributes(t.name, event)...)

	t.bus.Post(event)
}

// HasObservers implements livebus.Bus.HasObservers
func (t *TracedBus[T]) HasObservers() bool {
	return t.bus.HasObservers()
}

// HasActiveObservers implements livebus.Bus.HasActiveObservers
func (t *TracedBus[T]) HasActiveObservers() bool {
	return t.bus.HasActiveObservers()
}

func (t *TracedBus[T]) finish(ctx context.Context, err error) {
	if err != nil {
		t.tracer.RecordError(ctx, err)
	} else {
		t.tracer.SetStatus(ctx, codes.Ok, "")
	}
}

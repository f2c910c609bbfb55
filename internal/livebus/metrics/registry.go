package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics and provides a clean interface
// for recording metrics without global state
type Registry struct {
	registry *prometheus.Registry

	// Send/post metrics
	sendTotal    *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
	postTotal    *prometheus.CounterVec

	// Registration metrics
	observeTotal *prometheus.CounterVec
	removeTotal  *prometheus.CounterVec

	// Bus state gauges
	observers       *prometheus.GaugeVec
	activeObservers *prometheus.GaugeVec
	pendingEvents   *prometheus.GaugeVec

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		sendTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livebus_send_total",
				Help: "Total number of send operations",
			},
			[]string{"bus", "status"}, // status: sent, dropped, error
		),

		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "livebus_send_duration_seconds",
				Help:    "Time spent sending events, dispatch pass included",
				Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{"bus"},
		),

		postTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livebus_post_total",
				Help: "Total number of events posted to the main context",
			},
			[]string{"bus"},
		),

		observeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livebus_observe_total",
				Help: "Total number of observer registrations",
			},
			[]string{"bus", "kind", "status"}, // kind: lifecycle, forever
		),

		removeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livebus_remove_total",
				Help: "Total number of observer removals",
			},
			[]string{"bus", "scope", "status"}, // scope: observer, owner
		),

		observers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "livebus_observers",
				Help: "Current number of registered observers",
			},
			[]string{"bus"},
		),

		activeObservers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "livebus_active_observers",
				Help: "Current number of active observers",
			},
			[]string{"bus"},
		),

		pendingEvents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "livebus_pending_events",
				Help: "Number of queued events awaiting delivery",
			},
			[]string{"bus"},
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "livebus_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"version", "build_time"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "livebus_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Register application metrics
	registry.MustRegister(
		r.sendTotal,
		r.sendDuration,
		r.postTotal,
		r.observeTotal,
		r.removeTotal,
		r.observers,
		r.activeObservers,
		r.pendingEvents,
		r.systemInfo,
		r.startTime,
	)

	// Set start time
	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// RecordSend records a send operation
func (r *Registry) RecordSend(bus string, dropped bool, duration time.Duration, err error) {
	status := "sent"
	switch {
	case err != nil:
		status = "error"
	case dropped:
		status = "dropped"
	}

	r.sendTotal.WithLabelValues(bus, status).Inc()
	r.sendDuration.WithLabelValues(bus).Observe(duration.Seconds())
}

// RecordPost records an event posted from another goroutine
func (r *Registry) RecordPost(bus string) {
	r.postTotal.WithLabelValues(bus).Inc()
}

// RecordObserve records an observer registration
func (r *Registry) RecordObserve(bus, kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.observeTotal.WithLabelValues(bus, kind, status).Inc()
}

// RecordRemove records an observer removal
func (r *Registry) RecordRemove(bus, scope string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.removeTotal.WithLabelValues(bus, scope, status).Inc()
}

// UpdateBusState updates the observer and pending-event gauges
func (r *Registry) UpdateBusState(bus string, observers, active, pending int) {
	r.observers.WithLabelValues(bus).Set(float64(observers))
	r.activeObservers.WithLabelValues(bus).Set(float64(active))
	r.pendingEvents.WithLabelValues(bus).Set(float64(pending))
}

// SetSystemInfo sets system information metrics
func (r *Registry) SetSystemInfo(version, buildTime string) {
	r.systemInfo.WithLabelValues(version, buildTime).Set(1)
}

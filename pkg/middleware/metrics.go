package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

// MetricsConfig configures the Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "sharedstate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notification duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "sharedstate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a listenable.Instrumentation that exports Prometheus metrics.
type Metrics struct {
	notifications    *prometheus.CounterVec
	notifyDuration   *prometheus.HistogramVec
	listenersAdded   *prometheus.CounterVec
	listenersRemoved *prometheus.CounterVec
	listeners        *prometheus.GaugeVec
}

// Prometheus creates an instrumentation that records, per notifier name:
//   - sharedstate_notifications_total: notification passes by status (ok, panic)
//   - sharedstate_notify_duration_seconds: time spent dispatching to listeners
//   - sharedstate_listeners_added_total / sharedstate_listeners_removed_total
//   - sharedstate_listeners: current listener count
//
// Unnamed notifiers share the "anonymous" label. The metrics are
// registered on the configured registry, which must not already hold
// them.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	listenable.SetDefaultInstrumentation(middleware.Prometheus(middleware.WithRegistry(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of notification passes",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier", "status"}),

		notifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Time spent running listeners for one notification",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"notifier"}),

		listenersAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_added_total",
			Help:        "Total number of listeners registered",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		listenersRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_removed_total",
			Help:        "Total number of listeners removed",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		listeners: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners",
			Help:        "Number of listeners currently registered",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),
	}
}

// ListenerAdded implements listenable.Instrumentation.
func (m *Metrics) ListenerAdded(info listenable.Info) {
	name := notifierLabel(info)
	m.listenersAdded.WithLabelValues(name).Inc()
	m.listeners.WithLabelValues(name).Set(float64(info.Listeners))
}

// ListenerRemoved implements listenable.Instrumentation.
func (m *Metrics) ListenerRemoved(info listenable.Info) {
	name := notifierLabel(info)
	m.listenersRemoved.WithLabelValues(name).Inc()
	m.listeners.WithLabelValues(name).Set(float64(info.Listeners))
}

// Notify implements listenable.Instrumentation. A panicking listener is
// counted with status "panic" and the panic continues.
func (m *Metrics) Notify(info listenable.Info, dispatch func()) {
	name := notifierLabel(info)
	start := time.Now()
	status := "panic"
	defer func() {
		m.notifyDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		m.notifications.WithLabelValues(name, status).Inc()
	}()

	dispatch()
	status = "ok"
}

func notifierLabel(info listenable.Info) string {
	if info.Name == "" {
		return "anonymous"
	}
	return info.Name
}

// Package metrics exports the activity of a reactive context to Prometheus.
package metrics

import (
	"github.com/delaneyj/mvvm/observe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "mvvm").
	Namespace string

	// Subsystem is the metrics subsystem (default: "observe").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// FanoutBuckets are the histogram buckets for subscribers per publish.
	FanoutBuckets []float64

	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func WithFanoutBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.FanoutBuckets = buckets
	}
}

// WithRegistry registers the collector's metrics with registry instead of
// the default registerer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:     "mvvm",
		Subsystem:     "observe",
		FanoutBuckets: prometheus.ExponentialBuckets(1, 2, 10),
		Registry:      prometheus.DefaultRegisterer,
	}
}

// Collector is an observe.Tracer backed by Prometheus metrics.
type Collector struct {
	subscriptions prometheus.Counter
	publishes     prometheus.Counter
	fanout        prometheus.Histogram
	refreshes     *prometheus.CounterVec
	callbacks     *prometheus.CounterVec
	disposals     prometheus.Counter
	activeDeps    prometheus.Gauge
}

var _ observe.Tracer = (*Collector)(nil)

// New registers the metrics and returns the collector. Registering twice
// with the same registry panics, as promauto does.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}

	return &Collector{
		subscriptions: counter("subscriptions_total", "Watchers newly subscribed to a dep"),
		publishes:     counter("publishes_total", "Dep publish passes started"),
		disposals:     counter("watchers_disposed_total", "Watchers disposed"),

		fanout: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "publish_fanout",
			Help:        "Subscribers notified per publish pass",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.FanoutBuckets,
		}),

		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "refreshes_total",
			Help:        "Watcher re-evaluations by whether the value changed",
			ConstLabels: cfg.ConstLabels,
		}, []string{"changed"}),

		callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "callbacks_total",
			Help:        "Change callbacks run by status",
			ConstLabels: cfg.ConstLabels,
		}, []string{"status"}),

		activeDeps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "watcher_deps",
			Help:        "Deps held by the most recently refreshed watcher",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

func (c *Collector) OnSubscribe(*observe.Dep, *observe.Watcher) {
	c.subscriptions.Inc()
}

func (c *Collector) OnPublish(_ *observe.Dep, subscribers int) {
	c.publishes.Inc()
	c.fanout.Observe(float64(subscribers))
}

func (c *Collector) OnRefresh(w *observe.Watcher, changed bool) {
	if changed {
		c.refreshes.WithLabelValues("true").Inc()
	} else {
		c.refreshes.WithLabelValues("false").Inc()
	}
	c.activeDeps.Set(float64(w.DepCount()))
}

func (c *Collector) OnCallback(_ *observe.Watcher, err error) {
	if err != nil {
		c.callbacks.WithLabelValues("error").Inc()
		return
	}
	c.callbacks.WithLabelValues("ok").Inc()
}

func (c *Collector) OnDispose(*observe.Watcher) {
	c.disposals.Inc()
}

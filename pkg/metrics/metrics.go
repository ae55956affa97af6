// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"github.com/delaneyj/cellgraph/cells"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const anonymous = "anonymous"

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "cells").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// ByName labels recompute and effect counters with the subscriber name.
	// Only enable it when names are drawn from a small fixed set.
	ByName bool
}

// Option configures the collector.
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

func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithNameLabels enables per-name labels on recompute and effect counters.
func WithNameLabels() Option {
	return func(c *Config) {
		c.ByName = true
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "cells",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector is a cells.Tracer that records every engine event. It is safe
// to share between systems running on different goroutines.
type Collector struct {
	byName bool

	flushes       *prometheus.CounterVec
	flushDuration prometheus.Histogram
	flushRounds   prometheus.Histogram
	notified      prometheus.Counter
	failures      prometheus.Counter
	recomputes    *prometheus.CounterVec
	effectRuns    *prometheus.CounterVec
	pruned        prometheus.Counter
	inFlight      prometheus.Gauge
}

// New registers the engine metrics and returns the collector. It panics if
// they are already registered with the chosen registry.
//
// Metrics collected (with the default namespace):
//   - cells_flushes_total: Counter of flushes by transaction name
//   - cells_flush_duration_seconds: Histogram of flush duration
//   - cells_flush_rounds: Histogram of rounds needed to converge
//   - cells_notified_total: Counter of subscribers notified
//   - cells_subscriber_failures_total: Counter of isolated subscriber panics
//   - cells_recomputes_total: Counter of derived cell recomputes
//   - cells_effect_runs_total: Counter of effect runs
//   - cells_pruned_subscribers_total: Counter of dead subscribers pruned
//   - cells_flushes_in_flight: Gauge of flushes currently running
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	nameLabels := []string{}
	if config.ByName {
		nameLabels = []string{"name"}
	}

	return &Collector{
		byName: config.ByName,

		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of notification flushes by transaction name",
			ConstLabels: config.ConstLabels,
		}, []string{"tx", "status"}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushRounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_rounds",
			Help:        "Rounds needed for a flush to converge",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 4, 8, 16, 64, 256},
		}),

		notified: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notified_total",
			Help:        "Total number of subscribers notified by flushes",
			ConstLabels: config.ConstLabels,
		}),

		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriber_failures_total",
			Help:        "Total number of subscribers that panicked during a flush",
			ConstLabels: config.ConstLabels,
		}),

		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total number of derived cell recomputes",
			ConstLabels: config.ConstLabels,
		}, nameLabels),

		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}, nameLabels),

		pruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pruned_subscribers_total",
			Help:        "Total number of collected subscribers pruned from emitters",
			ConstLabels: config.ConstLabels,
		}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_in_flight",
			Help:        "Number of flushes currently running",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (c *Collector) FlushStarted(tx string, pending int) {
	c.inFlight.Inc()
}

func (c *Collector) FlushFinished(tx string, stats cells.FlushStats) {
	c.inFlight.Dec()

	status := "ok"
	if stats.Failed > 0 {
		status = "failed"
	}
	c.flushes.WithLabelValues(label(tx), status).Inc()
	c.flushDuration.Observe(stats.Duration.Seconds())
	c.flushRounds.Observe(float64(stats.Rounds))
	c.notified.Add(float64(stats.Notified))
	c.failures.Add(float64(stats.Failed))
}

func (c *Collector) Recomputed(name string) {
	c.named(c.recomputes, name).Inc()
}

func (c *Collector) EffectRan(name string) {
	c.named(c.effectRuns, name).Inc()
}

func (c *Collector) Pruned(count int) {
	c.pruned.Add(float64(count))
}

func (c *Collector) named(vec *prometheus.CounterVec, name string) prometheus.Counter {
	if !c.byName {
		return vec.WithLabelValues()
	}
	return vec.WithLabelValues(label(name))
}

func label(name string) string {
	if name == "" {
		return anonymous
	}
	return name
}

var _ cells.Tracer = (*Collector)(nil)

// Package tracing reports engine flushes as OpenTelemetry spans.
package tracing

import (
	"context"
	"sync"

	"github.com/delaneyj/cellgraph/cells"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for engine spans.
const defaultTracerName = "cellgraph"

// Config configures the OpenTelemetry tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "cellgraph").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Parent is the context flush spans are started from.
	// Default: context.Background()
	Parent context.Context

	// Events records recompute, effect and prune events on the flush span.
	// Enabled by default.
	Events bool

	// Attributes are added to every flush span.
	Attributes []attribute.KeyValue
}

// Option configures the tracer.
type Option func(*Config)

func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithParent starts flush spans as children of the span in ctx.
func WithParent(ctx context.Context) Option {
	return func(c *Config) {
		c.Parent = ctx
	}
}

func WithEvents(enabled bool) Option {
	return func(c *Config) {
		c.Events = enabled
	}
}

func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

func defaultConfig() Config {
	return Config{
		TracerName: defaultTracerName,
		Parent:     context.Background(),
		Events:     true,
	}
}

// Tracer is a cells.Tracer that opens one span per flush. Recomputes and
// effect runs that happen outside any flush, such as a lazy read or an
// effect's first run, are not traced.
//
// A Tracer keeps the open flush spans of one ReactiveSystem. Install it on a
// single system and use ForSystem for every other one.
type Tracer struct {
	config Config
	tracer trace.Tracer

	mu    sync.Mutex
	spans []trace.Span
}

func New(opts ...Option) *Tracer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	t := &Tracer{config: config}
	if config.Provider != nil {
		t.tracer = config.Provider.Tracer(config.TracerName)
	} else {
		t.tracer = otel.Tracer(config.TracerName)
	}
	return t
}

// ForSystem returns a Tracer with the same configuration and OpenTelemetry
// tracer but its own span stack, for installing on another system.
func (t *Tracer) ForSystem() *Tracer {
	return &Tracer{config: t.config, tracer: t.tracer}
}

func (t *Tracer) FlushStarted(tx string, pending int) {
	name := "cells.flush"
	if tx != "" {
		name = "cells.flush " + tx
	}

	attrs := append([]attribute.KeyValue{
		attribute.String("cells.tx", tx),
		attribute.Int("cells.pending", pending),
	}, t.config.Attributes...)

	_, span := t.tracer.Start(t.config.Parent, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
}

func (t *Tracer) FlushFinished(tx string, stats cells.FlushStats) {
	t.mu.Lock()
	if len(t.spans) == 0 {
		t.mu.Unlock()
		return
	}
	last := len(t.spans) - 1
	span := t.spans[last]
	t.spans[last] = nil
	t.spans = t.spans[:last]
	t.mu.Unlock()

	span.SetAttributes(
		attribute.Int("cells.rounds", stats.Rounds),
		attribute.Int("cells.notified", stats.Notified),
		attribute.Int("cells.failed", stats.Failed),
	)
	if stats.Failed > 0 {
		span.SetStatus(codes.Error, "subscribers failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *Tracer) Recomputed(name string) {
	t.event("cells.recompute", attribute.String("cells.name", name))
}

func (t *Tracer) EffectRan(name string) {
	t.event("cells.effect", attribute.String("cells.name", name))
}

func (t *Tracer) Pruned(count int) {
	t.event("cells.prune", attribute.Int("cells.count", count))
}

func (t *Tracer) event(name string, attrs ...attribute.KeyValue) {
	if !t.config.Events {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.spans) == 0 {
		return
	}
	t.spans[len(t.spans)-1].AddEvent(name, trace.WithAttributes(attrs...))
}

var _ cells.Tracer = (*Tracer)(nil)

package tracing_test

import (
	"context"
	"testing"

	"github.com/delaneyj/cellgraph/cells"
	"github.com/delaneyj/cellgraph/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingProvider struct {
	noop.TracerProvider
	name   string
	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	p.name = name
	return p.tracer
}

type recordingTracer struct {
	noop.Tracer
	spans []*recordingSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{name: name, attrs: cfg.Attributes()}
	r.spans = append(r.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	noop.Span
	name   string
	attrs  []attribute.KeyValue
	events []string
	status codes.Code
	ended  bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.attrs = append(s.attrs, kv...)
}

func (s *recordingSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.events = append(s.events, name)
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) {
	s.status = code
}

func (s *recordingSpan) End(...trace.SpanEndOption) {
	s.ended = true
}

func (s *recordingSpan) attr(key string) attribute.Value {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func newProvider() *recordingProvider {
	return &recordingProvider{tracer: &recordingTracer{}}
}

func TestFlushSpans(t *testing.T) {
	p := newProvider()
	tr := tracing.New(
		tracing.WithTracerProvider(p),
		tracing.WithAttributes(attribute.String("app", "demo")),
	)
	assert.Equal(t, "cellgraph", p.name)

	rs := cells.CreateReactiveSystem(
		cells.WithTracer(tr),
		cells.WithOnError(func(error) {}),
	)
	a := cells.Signal(rs, 1)
	double := cells.Derive(rs, func(sc *cells.Scope) int {
		return a.Read(sc) * 2
	}, cells.WithName[int]("double"))
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		if double.Read(sc) > 10 {
			panic("too big")
		}
		return nil
	}, cells.EffectName("view"))
	assert.Empty(t, p.tracer.spans)

	rs.BatchNamed("save", func(sc *cells.Scope) {
		a.Write(2)
	})
	require.Len(t, p.tracer.spans, 1)
	span := p.tracer.spans[0]
	assert.Equal(t, "cells.flush save", span.name)
	assert.Equal(t, []string{"cells.recompute", "cells.effect"}, span.events)
	assert.Equal(t, codes.Ok, span.status)
	assert.True(t, span.ended)
	assert.Equal(t, "save", span.attr("cells.tx").AsString())
	assert.Equal(t, "demo", span.attr("app").AsString())
	assert.Equal(t, int64(1), span.attr("cells.pending").AsInt64())
	assert.Equal(t, int64(1), span.attr("cells.rounds").AsInt64())

	a.Write(6)
	require.Len(t, p.tracer.spans, 2)
	span = p.tracer.spans[1]
	assert.Equal(t, "cells.flush", span.name)
	assert.Equal(t, codes.Error, span.status)
	assert.Equal(t, int64(1), span.attr("cells.failed").AsInt64())
	assert.Equal(t, []string{"cells.recompute"}, span.events)
}

func TestEventsCanBeDisabled(t *testing.T) {
	p := newProvider()
	tr := tracing.New(
		tracing.WithTracerProvider(p),
		tracing.WithTracerName("custom"),
		tracing.WithEvents(false),
	)
	assert.Equal(t, "custom", p.name)

	tr.FlushStarted("", 3)
	tr.Recomputed("x")
	tr.Pruned(2)
	tr.FlushFinished("", cells.FlushStats{Rounds: 1, Notified: 3})

	require.Len(t, p.tracer.spans, 1)
	assert.Empty(t, p.tracer.spans[0].events)
	assert.True(t, p.tracer.spans[0].ended)
}

func TestUnbalancedFinishIsIgnored(t *testing.T) {
	p := newProvider()
	tr := tracing.New(tracing.WithTracerProvider(p))

	assert.NotPanics(t, func() {
		tr.EffectRan("orphan")
		tr.FlushFinished("", cells.FlushStats{})
	})
	assert.Empty(t, p.tracer.spans)
}

func TestForSystemKeepsSpansApart(t *testing.T) {
	p := newProvider()
	base := tracing.New(tracing.WithTracerProvider(p))
	other := base.ForSystem()

	rs1 := cells.CreateReactiveSystem(cells.WithTracer(base))
	rs2 := cells.CreateReactiveSystem(cells.WithTracer(other))
	a := cells.Signal(rs1, 0)
	b := cells.Signal(rs2, 0)
	rs2.Effect(func(sc *cells.Scope) cells.Cleanup {
		b.Read(sc)
		return nil
	}, cells.EffectName("inner"))
	rs1.Effect(func(sc *cells.Scope) cells.Cleanup {
		b.Write(a.Read(sc))
		return nil
	}, cells.EffectName("outer"))

	base.FlushStarted("one", 1)
	other.FlushStarted("two", 1)
	base.FlushFinished("one", cells.FlushStats{Rounds: 1})
	require.Len(t, p.tracer.spans, 2)
	assert.True(t, p.tracer.spans[0].ended)
	assert.False(t, p.tracer.spans[1].ended)
	other.FlushFinished("two", cells.FlushStats{Rounds: 1})
	assert.True(t, p.tracer.spans[1].ended)

	rs1.BatchNamed("outer", func(sc *cells.Scope) {
		a.Write(1)
	})
	require.Len(t, p.tracer.spans, 4)
	outer, inner := p.tracer.spans[2], p.tracer.spans[3]
	assert.Equal(t, "cells.flush outer", outer.name)
	assert.Equal(t, "cells.flush", inner.name)
	assert.Equal(t, []string{"cells.effect"}, outer.events)
	assert.Equal(t, []string{"cells.effect"}, inner.events)
	assert.True(t, outer.ended)
	assert.True(t, inner.ended)
}

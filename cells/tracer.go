package cells

import "time"

// Tracer observes the engine. Implementations must not read or write cells.
type Tracer interface {
	FlushStarted(tx string, pending int)
	FlushFinished(tx string, stats FlushStats)
	Recomputed(name string)
	EffectRan(name string)
	Pruned(count int)
}

// FlushStats summarises one notification pass.
type FlushStats struct {
	Rounds   int
	Notified int
	Failed   int
	Duration time.Duration
}

// NopTracer ignores everything. Embed it to implement only part of Tracer.
type NopTracer struct{}

func (NopTracer) FlushStarted(string, int)         {}
func (NopTracer) FlushFinished(string, FlushStats) {}
func (NopTracer) Recomputed(string)                {}
func (NopTracer) EffectRan(string)                 {}
func (NopTracer) Pruned(int)                       {}

var _ Tracer = NopTracer{}

type multiTracer []Tracer

// MultiTracer fans every event out to ts in order.
func MultiTracer(ts ...Tracer) Tracer {
	return multiTracer(ts)
}

func (m multiTracer) FlushStarted(tx string, pending int) {
	for _, t := range m {
		t.FlushStarted(tx, pending)
	}
}

func (m multiTracer) FlushFinished(tx string, stats FlushStats) {
	for _, t := range m {
		t.FlushFinished(tx, stats)
	}
}

func (m multiTracer) Recomputed(name string) {
	for _, t := range m {
		t.Recomputed(name)
	}
}

func (m multiTracer) EffectRan(name string) {
	for _, t := range m {
		t.EffectRan(name)
	}
}

func (m multiTracer) Pruned(count int) {
	for _, t := range m {
		t.Pruned(count)
	}
}

package cells

import (
	"context"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultMaxFlushRounds bounds how many times a flush may drain work that
// subscribers keep scheduling for it.
const DefaultMaxFlushRounds = 1000

// OnErrorFunc receives the failures isolated during a flush. When set, a
// flush never raises a *FlushError.
type OnErrorFunc func(err error)

// ReactiveSystem is the engine root. Every cell, computed and effect belongs
// to exactly one system, and systems never share state. A system is not safe
// for concurrent use: all calls must happen on one goroutine at a time.
type ReactiveSystem struct {
	current   *Scope
	stack     []*Scope
	untracked *Scope

	batchDepth int
	txName     string
	pending    []*subscriber

	// effects pins effects and effect scopes that have no owner until they
	// are stopped.
	effects mapset.Set[*subscriber]

	logger        *slog.Logger
	onError       OnErrorFunc
	tracer        Tracer
	defaultEquals func(a, b any) bool
	maxRounds     int
}

// SystemOption configures a ReactiveSystem.
type SystemOption func(*ReactiveSystem)

// WithLogger sets the structured logger. Flush boundaries and pruning are
// logged at debug level, isolated subscriber failures at warn.
func WithLogger(logger *slog.Logger) SystemOption {
	return func(rs *ReactiveSystem) {
		if logger != nil {
			rs.logger = logger
		}
	}
}

// WithOnError routes failures isolated during a flush to fn instead of
// raising them to the writer.
func WithOnError(fn OnErrorFunc) SystemOption {
	return func(rs *ReactiveSystem) {
		rs.onError = fn
	}
}

// WithTracer installs an engine observer such as a metrics collector.
func WithTracer(t Tracer) SystemOption {
	return func(rs *ReactiveSystem) {
		if t != nil {
			rs.tracer = t
		}
	}
}

// WithDefaultEquals sets the comparator inherited by cells created without
// an explicit equality option.
func WithDefaultEquals(fn func(a, b any) bool) SystemOption {
	return func(rs *ReactiveSystem) {
		rs.defaultEquals = fn
	}
}

// WithMaxFlushRounds overrides DefaultMaxFlushRounds.
func WithMaxFlushRounds(n int) SystemOption {
	return func(rs *ReactiveSystem) {
		if n > 0 {
			rs.maxRounds = n
		}
	}
}

// CreateReactiveSystem returns an empty, independent engine.
func CreateReactiveSystem(opts ...SystemOption) *ReactiveSystem {
	rs := &ReactiveSystem{
		effects:   mapset.NewThreadUnsafeSet[*subscriber](),
		logger:    slog.New(slog.DiscardHandler),
		tracer:    NopTracer{},
		maxRounds: DefaultMaxFlushRounds,
	}
	rs.untracked = &Scope{rs: rs}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// UntrackedScope returns the scope that never records dependencies.
func (rs *ReactiveSystem) UntrackedScope() *Scope {
	return rs.untracked
}

// ActiveEffects reports effects and effect scopes that are pinned by the
// system, i.e. created outside any owner and not yet stopped.
func (rs *ReactiveSystem) ActiveEffects() int {
	return rs.effects.Cardinality()
}

// Reset stops every pinned effect and drops pending notifications, leaving
// the system as if freshly created. Cells keep their values. Reset panics
// with ErrResetInProgress inside a batch, a flush or a running subscriber.
func (rs *ReactiveSystem) Reset() {
	if rs.batchDepth > 0 || rs.current != nil {
		panic(ErrResetInProgress)
	}
	for _, sub := range rs.effects.ToSlice() {
		sub.dispose()
	}
	for _, sub := range rs.pending {
		sub.queued = false
	}
	rs.pending = nil
	rs.txName = ""
}

func (rs *ReactiveSystem) debugEnabled() bool {
	return rs.logger.Enabled(context.Background(), slog.LevelDebug)
}

func (rs *ReactiveSystem) pruned(n int) {
	rs.tracer.Pruned(n)
	if rs.debugEnabled() {
		rs.logger.Debug("pruned dead subscribers", "count", n)
	}
}

// adopt attaches a new effect or effect scope to the current owner, or pins
// it on the system when there is none.
func (rs *ReactiveSystem) adopt(sub *subscriber) {
	if owner := rs.owner(); owner != nil && !owner.disposed {
		sub.owner = owner
		owner.owned = append(owner.owned, sub)
		return
	}
	rs.effects.Add(sub)
}

package cells

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// StartBatch opens a transaction. Pair every call with EndBatch; prefer
// Batch, which also survives panics.
func (rs *ReactiveSystem) StartBatch() {
	rs.batchDepth++
}

// EndBatch closes a transaction opened by StartBatch and flushes when it was
// the outermost one. It panics with ErrUnbalancedBatch when no transaction
// is open.
func (rs *ReactiveSystem) EndBatch() {
	rs.endBatch(true)
}

// Batch runs fn as one transaction. Nested batches join the outermost one,
// and subscribers are notified once, after the outermost batch returns.
func (rs *ReactiveSystem) Batch(fn func(sc *Scope)) {
	rs.BatchNamed("", fn)
}

// BatchNamed is Batch with a transaction name that is handed to the Tracer
// and the logger. Only the outermost name is kept.
func (rs *ReactiveSystem) BatchNamed(name string, fn func(sc *Scope)) {
	if rs.batchDepth == 0 {
		rs.txName = name
	}
	rs.batchDepth++
	completed := false
	defer func() {
		if !completed {
			rs.endBatch(false)
		}
	}()
	fn(rs.untracked)
	completed = true
	rs.endBatch(true)
}

// Untracked runs fn with the untracked scope and returns its result.
func Untracked[T any](rs *ReactiveSystem, fn func(sc *Scope) T) T {
	return fn(rs.untracked)
}

// UntrackedRead reads c without registering a dependency.
func UntrackedRead[T any](c ReadonlyCell[T]) T {
	return c.Peek()
}

func (rs *ReactiveSystem) endBatch(raise bool) {
	if rs.batchDepth == 0 {
		panic(ErrUnbalancedBatch)
	}
	rs.batchDepth--
	if rs.batchDepth > 0 {
		return
	}
	tx := rs.txName
	rs.txName = ""
	err := rs.flush(tx)
	if err == nil {
		return
	}
	if raise {
		panic(err)
	}
	rs.logger.Error("flush failed while unwinding a panic", "tx", tx, "error", err)
}

// propagate is called by a leaf cell whose value changed.
func (rs *ReactiveSystem) propagate(e *emitter) {
	e.each(func(sub *subscriber) {
		sub.stale(cacheDirty)
	})
	rs.settle()
}

// settle flushes work scheduled outside of any transaction.
func (rs *ReactiveSystem) settle() {
	if rs.batchDepth > 0 || len(rs.pending) == 0 {
		return
	}
	if err := rs.flush(""); err != nil {
		panic(err)
	}
}

func (rs *ReactiveSystem) enqueue(sub *subscriber) {
	if sub.queued {
		return
	}
	sub.queued = true
	rs.pending = append(rs.pending, sub)
}

// flush notifies every pending subscriber once, in the order they were
// scheduled. Work scheduled by subscribers while the flush runs is drained in
// further rounds before flush returns. A panicking subscriber is isolated:
// the rest are still notified and the failures are returned together.
func (rs *ReactiveSystem) flush(tx string) error {
	if len(rs.pending) == 0 {
		return nil
	}

	start := time.Now()
	rs.tracer.FlushStarted(tx, len(rs.pending))
	if rs.debugEnabled() {
		rs.logger.Debug("flush started", "tx", tx, "pending", len(rs.pending))
	}

	rs.batchDepth++
	var (
		errs  *multierror.Error
		stats FlushStats
	)
	for len(rs.pending) > 0 {
		if stats.Rounds == rs.maxRounds {
			for _, sub := range rs.pending {
				sub.queued = false
				sub.state = cacheClean
			}
			rs.pending = nil
			errs = multierror.Append(errs, fmt.Errorf("%w after %d rounds", ErrRunaway, stats.Rounds))
			break
		}
		stats.Rounds++

		queue := rs.pending
		rs.pending = nil
		for i, sub := range queue {
			queue[i] = nil
			sub.queued = false
			if sub.disposed {
				continue
			}
			stats.Notified++
			if err := rs.notify(sub); err != nil {
				stats.Failed++
				errs = multierror.Append(errs, err)
			}
		}
	}
	rs.batchDepth--

	stats.Duration = time.Since(start)
	rs.tracer.FlushFinished(tx, stats)
	if rs.debugEnabled() {
		rs.logger.Debug("flush finished",
			"tx", tx,
			"rounds", stats.Rounds,
			"notified", stats.Notified,
			"failed", stats.Failed,
			"duration", stats.Duration,
		)
	}

	if errs == nil {
		return nil
	}
	if rs.onError != nil {
		for _, err := range errs.Errors {
			rs.onError(err)
		}
		return nil
	}
	return &FlushError{Tx: tx, Failures: errs}
}

func (rs *ReactiveSystem) notify(sub *subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			sub.state = cacheClean
			sub.missed = cacheClean
			se := &SubscriberError{Kind: sub.kind.String(), Name: sub.name, Value: r}
			rs.logger.Warn("subscriber failed during flush", "kind", se.Kind, "name", sub.name, "panic", r)
			err = se
		}
	}()
	sub.refresh()
	return nil
}

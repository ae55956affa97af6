package cells

import (
	"weak"

	mapset "github.com/deckarep/golang-set/v2"
)

// subscriber is the record behind every computed, effect and effect scope.
// Cells reach it only through weak references; its owner (the Computed, or
// the system/parent effect for effects) holds the only strong one.
type subscriber struct {
	rs   *ReactiveSystem
	kind subscriberKind
	name string
	ref  weak.Pointer[subscriber]

	state    cacheState
	running  bool
	queued   bool
	disposed bool
	// faulted is set while a computed's last recompute panicked, so later
	// changes still reach its observers even though it never became clean.
	faulted bool
	// missed is the strongest notification that arrived while the
	// subscriber was running, replayed by catchUp once the run is over.
	missed cacheState

	// deps are the emitters read by the last completed run, in read order.
	deps   []*emitter
	depSet mapset.Set[*emitter]
	// next collects the emitters of the run in progress.
	next    []*emitter
	nextSet mapset.Set[*emitter]

	// computed
	out       *emitter
	recompute func(sc *Scope) (changed bool)

	// effect
	run     func()
	cleanup Cleanup

	owner *subscriber
	owned []*subscriber
}

func newSubscriber(rs *ReactiveSystem, kind subscriberKind, name string) *subscriber {
	s := &subscriber{
		rs:      rs,
		kind:    kind,
		name:    name,
		depSet:  mapset.NewThreadUnsafeSet[*emitter](),
		nextSet: mapset.NewThreadUnsafeSet[*emitter](),
	}
	s.ref = weak.Make(s)
	return s
}

func (s *subscriber) beginTracking() {
	s.next = s.next[:0]
	s.nextSet.Clear()
}

func (s *subscriber) track(e *emitter) {
	if !s.nextSet.Add(e) {
		return
	}
	s.next = append(s.next, e)
	if !s.depSet.Contains(e) {
		e.attach(s)
	}
}

// endTracking swaps the collected emitters in as the new dependency set and
// detaches from every emitter the run no longer read.
func (s *subscriber) endTracking() {
	if s.disposed {
		for _, e := range s.next {
			e.detach(s)
		}
		clear(s.next)
		s.next = s.next[:0]
		s.nextSet.Clear()
		return
	}

	for _, e := range s.depSet.Difference(s.nextSet).ToSlice() {
		e.detach(s)
	}
	old := s.deps
	clear(old)
	s.deps, s.next = s.next, old[:0]
	s.depSet, s.nextSet = s.nextSet, s.depSet
	s.nextSet.Clear()
}

func (s *subscriber) detachAll() {
	for _, e := range s.deps {
		e.detach(s)
	}
	clear(s.deps)
	s.deps = s.deps[:0]
	s.depSet.Clear()
}

// stale marks s as possibly (cacheCheck) or certainly (cacheDirty) out of
// date. Leaving the clean state fans cacheCheck out to a computed's
// observers and schedules an effect for the current transaction.
func (s *subscriber) stale(state cacheState) {
	if s.disposed {
		return
	}
	if s.running {
		s.missed = max(s.missed, state)
		return
	}
	prev := s.state
	if prev >= state && !s.faulted {
		return
	}
	if state > prev {
		s.state = state
	}
	if prev != cacheClean && !s.faulted {
		return
	}

	switch s.kind {
	case kindComputed:
		s.out.each(func(sub *subscriber) {
			sub.stale(cacheCheck)
		})
	case kindEffect:
		s.rs.enqueue(s)
	}
}

// refresh brings s up to date, asking the computed sources of a cacheCheck
// subscriber in read order and stopping at the first that changed.
func (s *subscriber) refresh() {
	if s.disposed && s.kind != kindComputed {
		return
	}
	if s.state == cacheCheck {
		for _, dep := range s.deps {
			if dep.node == nil {
				continue
			}
			dep.node.refresh()
			if s.state == cacheDirty {
				break
			}
		}
	}
	if s.state == cacheDirty {
		s.update()
	}
	s.state = cacheClean
	s.catchUp()
}

// catchUp marks s stale again when a cell it read changed during its own
// run, so an effect that writes its inputs runs until they settle.
func (s *subscriber) catchUp() {
	state := s.missed
	s.missed = cacheClean
	if state != cacheClean {
		s.stale(state)
	}
}

func (s *subscriber) update() {
	switch s.kind {
	case kindComputed:
		changed := s.recomputeTracked()
		s.state = cacheClean
		s.rs.tracer.Recomputed(s.name)
		if changed {
			s.out.each(func(sub *subscriber) {
				sub.stale(cacheDirty)
			})
		}
	case kindEffect:
		s.run()
		s.rs.tracer.EffectRan(s.name)
	}
}

func (s *subscriber) recomputeTracked() bool {
	sc := s.rs.enter(s)
	defer s.rs.exit(sc)
	s.faulted = true
	changed := s.recompute(sc)
	s.faulted = false
	return changed
}

package cells

// EffectOption configures an effect.
type EffectOption func(*effectOptions)

type effectOptions struct {
	name string
}

// EffectName labels the effect for the logger, the Tracer and errors.
func EffectName(name string) EffectOption {
	return func(o *effectOptions) {
		o.name = name
	}
}

// Effect runs fn immediately and again after every transaction in which a
// cell it read reports a change. The Cleanup fn returns, if any, runs before
// the next run and when the effect stops.
//
// An effect created while another effect or an effect scope is running is
// owned by it and stops when its owner re-runs or stops. Otherwise the
// system keeps it alive until stop is called; stop is idempotent.
func (rs *ReactiveSystem) Effect(fn func(sc *Scope) Cleanup, opts ...EffectOption) (stop func()) {
	var o effectOptions
	for _, opt := range opts {
		opt(&o)
	}

	sub := newSubscriber(rs, kindEffect, o.name)
	sub.run = func() {
		sub.disposeOwned()
		sub.runCleanup()

		sc := rs.enter(sub)
		defer rs.exit(sc)
		cleanup := fn(sc)
		if sub.disposed {
			if cleanup != nil {
				cleanup()
			}
			return
		}
		sub.cleanup = cleanup
	}
	rs.adopt(sub)

	// Writes made by the first run are flushed once it has finished.
	rs.batchDepth++
	completed := false
	defer func() {
		if !completed {
			sub.dispose()
			rs.endBatch(false)
		}
	}()
	sub.run()
	rs.tracer.EffectRan(sub.name)
	sub.catchUp()
	completed = true
	rs.endBatch(true)

	return sub.dispose
}

// EffectScope runs fn and collects every effect created while it runs.
// Calling stop stops all of them. Reads inside fn are untracked.
func (rs *ReactiveSystem) EffectScope(fn func(sc *Scope)) (stop func()) {
	sub := newSubscriber(rs, kindEffectScope, "")
	rs.adopt(sub)

	sc := &Scope{rs: rs, owner: sub}
	rs.push(sc)
	completed := false
	defer func() {
		rs.pop(sc)
		if !completed {
			sub.dispose()
		}
	}()
	fn(sc)
	completed = true

	return sub.dispose
}

func (s *subscriber) runCleanup() {
	if s.cleanup == nil {
		return
	}
	cleanup := s.cleanup
	s.cleanup = nil
	cleanup()
}

func (s *subscriber) disposeOwned() {
	owned := s.owned
	s.owned = nil
	for i := len(owned) - 1; i >= 0; i-- {
		owned[i].owner = nil
		owned[i].dispose()
	}
}

// dispose stops an effect or effect scope: owned effects first, then the
// last cleanup, then every dependency edge.
func (s *subscriber) dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.disposeOwned()
	s.runCleanup()
	s.detachAll()

	if s.owner != nil {
		s.owner.release(s)
		s.owner = nil
	} else {
		s.rs.effects.Remove(s)
	}
}

func (s *subscriber) release(child *subscriber) {
	for i, sub := range s.owned {
		if sub == child {
			s.owned = append(s.owned[:i], s.owned[i+1:]...)
			return
		}
	}
}

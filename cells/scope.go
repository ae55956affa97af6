package cells

import "fmt"

// Scope is the read-tracking token passed to every Read. A scope handed to a
// computed or effect run collects the cells that run reads; the untracked
// scope collects nothing, and neither does a scope after its run returns.
// A nil *Scope reads untracked.
type Scope struct {
	rs *ReactiveSystem
	// sub is the collecting subscriber, nil when untracked.
	sub *subscriber
	// owner adopts effects created while this scope is current.
	owner *subscriber
	done  bool
}

// System returns the engine the scope belongs to.
func (sc *Scope) System() *ReactiveSystem {
	if sc == nil {
		return nil
	}
	return sc.rs
}

// Tracking reports whether reads through sc currently record dependencies.
func (sc *Scope) Tracking() bool {
	return sc != nil && sc.sub != nil && !sc.done
}

func (sc *Scope) attach(e *emitter) {
	if sc == nil {
		return
	}
	if sc.rs != e.rs {
		panic(ErrForeignScope)
	}
	if sc.sub == nil || sc.done {
		return
	}
	sc.sub.track(e)
}

func (rs *ReactiveSystem) push(sc *Scope) {
	rs.stack = append(rs.stack, rs.current)
	rs.current = sc
}

func (rs *ReactiveSystem) pop(sc *Scope) {
	if rs.current != sc {
		panic(errUnbalancedScope)
	}
	sc.done = true
	last := len(rs.stack) - 1
	rs.current = rs.stack[last]
	rs.stack[last] = nil
	rs.stack = rs.stack[:last]
}

// enter starts a tracked run of sub and makes its scope current. Every enter
// is paired with exit, normally through defer.
func (rs *ReactiveSystem) enter(sub *subscriber) *Scope {
	if sub.running {
		panic(fmt.Errorf("%w: %s %q read itself", ErrCycle, sub.kind, sub.name))
	}
	sub.running = true
	sub.beginTracking()
	sc := &Scope{rs: rs, sub: sub}
	if sub.kind == kindEffect {
		sc.owner = sub
	}
	rs.push(sc)
	return sc
}

func (rs *ReactiveSystem) exit(sc *Scope) {
	rs.pop(sc)
	sc.sub.running = false
	sc.sub.endTracking()
}

func (rs *ReactiveSystem) owner() *subscriber {
	if rs.current == nil {
		return nil
	}
	return rs.current.owner
}

package cells

import "weak"

// emitter is a cell's registry of interested subscribers. It only holds weak
// references, so a subscriber nobody else owns can be collected without
// being detached first. Dead entries are pruned whenever the registry is
// walked or grown.
type emitter struct {
	rs   *ReactiveSystem
	subs []weak.Pointer[subscriber]
	// node is the computation behind a derived cell, nil for leaf cells.
	node *subscriber
}

func (e *emitter) attach(sub *subscriber) {
	e.prune()
	e.subs = append(e.subs, sub.ref)
}

func (e *emitter) detach(sub *subscriber) {
	for i, ref := range e.subs {
		if ref == sub.ref {
			copy(e.subs[i:], e.subs[i+1:])
			e.subs[len(e.subs)-1] = weak.Pointer[subscriber]{}
			e.subs = e.subs[:len(e.subs)-1]
			return
		}
	}
}

func (e *emitter) prune() {
	live := e.subs[:0]
	for _, ref := range e.subs {
		if ref.Value() != nil {
			live = append(live, ref)
		}
	}
	dead := len(e.subs) - len(live)
	if dead == 0 {
		return
	}
	clear(e.subs[len(live):])
	e.subs = live
	e.rs.pruned(dead)
}

func (e *emitter) count() int {
	e.prune()
	return len(e.subs)
}

// each calls fn for every live subscriber in registration order. The live
// set is captured before the first call, so fn may attach or detach.
func (e *emitter) each(fn func(sub *subscriber)) {
	if len(e.subs) == 0 {
		return
	}
	var buf [8]*subscriber
	live := buf[:0]
	kept := e.subs[:0]
	for _, ref := range e.subs {
		if sub := ref.Value(); sub != nil {
			live = append(live, sub)
			kept = append(kept, ref)
		}
	}
	if dead := len(e.subs) - len(kept); dead > 0 {
		clear(e.subs[len(kept):])
		e.subs = kept
		e.rs.pruned(dead)
	}
	for _, sub := range live {
		fn(sub)
	}
}

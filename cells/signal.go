package cells

// WriteableSignal is a leaf cell: a value that is written directly.
type WriteableSignal[T any] struct {
	emitter
	name   string
	value  T
	equals func(a, b T) bool
}

// Signal creates a leaf cell holding initialValue.
func Signal[T any](rs *ReactiveSystem, initialValue T, opts ...Option[T]) *WriteableSignal[T] {
	o := resolveOptions(rs, opts)
	return &WriteableSignal[T]{
		emitter: emitter{rs: rs},
		name:    o.name,
		value:   initialValue,
		equals:  o.equals,
	}
}

func (s *WriteableSignal[T]) Read(sc *Scope) T {
	sc.attach(&s.emitter)
	return s.value
}

func (s *WriteableSignal[T]) Peek() T {
	return s.value
}

// Write stores v when the cell's equality function reports a change and
// notifies subscribers in the current transaction, or in a transaction of
// its own when none is open. An equal value is a no-op.
func (s *WriteableSignal[T]) Write(v T) {
	if s.equals(s.value, v) {
		return
	}
	s.value = v
	s.rs.propagate(&s.emitter)
}

// Update writes the value returned by fn. fn gets the untracked scope, so
// reads inside it never become dependencies of whatever is running.
func (s *WriteableSignal[T]) Update(fn func(sc *Scope, prev T) T) {
	s.Write(fn(s.rs.untracked, s.value))
}

func (s *WriteableSignal[T]) SubscriberCount() int {
	return s.count()
}

func (s *WriteableSignal[T]) Name() string {
	return s.name
}

var _ Cell[int] = (*WriteableSignal[int])(nil)

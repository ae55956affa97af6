package cells

// Option configures a cell at construction.
type Option[T any] func(*cellOptions[T])

type cellOptions[T any] struct {
	equals   func(a, b T) bool
	identity bool
	name     string
}

// WithEquals overrides the comparator used to decide whether a new value is
// a change.
func WithEquals[T any](fn func(a, b T) bool) Option[T] {
	return func(o *cellOptions[T]) {
		o.equals = fn
		o.identity = fn == nil
	}
}

// WithoutEquals restores identity comparison, ignoring the system default.
func WithoutEquals[T any]() Option[T] {
	return func(o *cellOptions[T]) {
		o.equals = nil
		o.identity = true
	}
}

// WithName labels the cell for logs, metrics and traces.
func WithName[T any](name string) Option[T] {
	return func(o *cellOptions[T]) {
		o.name = name
	}
}

func resolveOptions[T any](rs *ReactiveSystem, opts []Option[T]) cellOptions[T] {
	var o cellOptions[T]
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case o.identity:
		o.equals = Identical[T]()
	case o.equals != nil:
	case rs.defaultEquals != nil:
		def := rs.defaultEquals
		o.equals = func(a, b T) bool {
			return def(a, b)
		}
	default:
		o.equals = Identical[T]()
	}
	return o
}

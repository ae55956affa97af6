package cells

type cacheState uint8

const (
	cacheClean cacheState = iota // cached value is valid
	cacheCheck                   // a transitive source may have changed, ask the sources
	cacheDirty                   // a direct source changed, recompute
)

type subscriberKind uint8

const (
	kindComputed subscriberKind = iota + 1
	kindEffect
	kindEffectScope
)

func (k subscriberKind) String() string {
	switch k {
	case kindComputed:
		return "computed"
	case kindEffect:
		return "effect"
	case kindEffectScope:
		return "scope"
	default:
		return "unknown"
	}
}

// Cleanup is returned by an effect body and runs before the next run and
// when the effect is stopped.
type Cleanup func()

// ReadonlyCell is anything that can be read inside a tracking scope.
type ReadonlyCell[T any] interface {
	// Read returns the current value and, when sc is collecting, records the
	// cell as a dependency of the running subscriber.
	Read(sc *Scope) T
	// Peek returns the current value without recording a dependency.
	Peek() T
	// SubscriberCount reports live subscribers after pruning collected ones.
	SubscriberCount() int
}

// Cell is a ReadonlyCell that can also be written.
type Cell[T any] interface {
	ReadonlyCell[T]
	Write(v T)
	Update(fn func(sc *Scope, prev T) T)
}

package cells

// Computed is a derived cell. Its read function runs lazily on the first
// read, and again only after a cell it read reports a change. Each run
// replaces the dependency set with exactly the cells that run read.
type Computed[T any] struct {
	emitter
	node   *subscriber
	value  T
	ready  bool
	read   func(sc *Scope) T
	equals func(a, b T) bool
}

// Derive creates a read-only derived cell.
func Derive[T any](rs *ReactiveSystem, read func(sc *Scope) T, opts ...Option[T]) *Computed[T] {
	c := &Computed[T]{read: read}
	c.init(rs, opts)
	return c
}

func (c *Computed[T]) init(rs *ReactiveSystem, opts []Option[T]) {
	o := resolveOptions(rs, opts)
	c.emitter = emitter{rs: rs}
	c.equals = o.equals

	node := newSubscriber(rs, kindComputed, o.name)
	node.state = cacheDirty
	node.out = &c.emitter
	node.recompute = c.recompute
	c.node = node
	c.emitter.node = node
}

func (c *Computed[T]) recompute(sc *Scope) bool {
	v := c.read(sc)
	if c.ready && c.equals(c.value, v) {
		return false
	}
	c.value = v
	c.ready = true
	return true
}

func (c *Computed[T]) Read(sc *Scope) T {
	c.node.refresh()
	sc.attach(&c.emitter)
	c.rs.settle()
	return c.value
}

// Peek brings the value up to date without registering a dependency.
func (c *Computed[T]) Peek() T {
	c.node.refresh()
	c.rs.settle()
	return c.value
}

func (c *Computed[T]) SubscriberCount() int {
	return c.count()
}

// DependencyCount is the number of cells the last run read.
func (c *Computed[T]) DependencyCount() int {
	return len(c.node.deps)
}

func (c *Computed[T]) Name() string {
	return c.node.name
}

// Dispose detaches the cell from everything it reads. Unreferenced derived
// cells are reclaimed without it; Dispose only makes the detach immediate.
// A later read recomputes and attaches again.
func (c *Computed[T]) Dispose() {
	c.node.detachAll()
	c.node.state = cacheDirty
}

// WriteableComputed is a two-way derived cell: reads derive, writes are
// forwarded to a write-back function inside a single transaction.
type WriteableComputed[T any] struct {
	Computed[T]
	write func(sc *Scope, v T)
}

// DeriveWriteable creates a two-way derived cell. A nil write makes every
// Write panic with ErrNoWriter.
func DeriveWriteable[T any](
	rs *ReactiveSystem,
	read func(sc *Scope) T,
	write func(sc *Scope, v T),
	opts ...Option[T],
) *WriteableComputed[T] {
	c := &WriteableComputed[T]{write: write}
	c.read = read
	c.init(rs, opts)
	return c
}

// Write hands v to the write-back function. Every write it performs lands in
// one transaction, so observers see a single update.
func (c *WriteableComputed[T]) Write(v T) {
	if c.write == nil {
		panic(ErrNoWriter)
	}
	c.rs.Batch(func(sc *Scope) {
		c.write(sc, v)
	})
}

func (c *WriteableComputed[T]) Update(fn func(sc *Scope, prev T) T) {
	if c.write == nil {
		panic(ErrNoWriter)
	}
	c.Write(fn(c.rs.untracked, c.Peek()))
}

var (
	_ ReadonlyCell[int] = (*Computed[int])(nil)
	_ Cell[int]         = (*WriteableComputed[int])(nil)
)

package cells

// Source describes how New builds a cell: from a plain value (Literal), a
// read function (Reader), or a read function paired with a write-back
// function (ReaderWriter). The variant is resolved once, at construction.
type Source[T any] interface {
	build(rs *ReactiveSystem, opts []Option[T]) Cell[T]
}

type literal[T any] struct{ value T }

type reader[T any] struct{ read func(sc *Scope) T }

type readerWriter[T any] struct {
	read  func(sc *Scope) T
	write func(sc *Scope, v T)
}

// Literal builds a leaf cell holding v.
func Literal[T any](v T) Source[T] {
	return literal[T]{value: v}
}

// Reader builds a derived cell without a write-back function. Writing the
// resulting cell panics with ErrNoWriter.
func Reader[T any](read func(sc *Scope) T) Source[T] {
	return reader[T]{read: read}
}

// ReaderWriter builds a two-way derived cell.
func ReaderWriter[T any](read func(sc *Scope) T, write func(sc *Scope, v T)) Source[T] {
	return readerWriter[T]{read: read, write: write}
}

func (s literal[T]) build(rs *ReactiveSystem, opts []Option[T]) Cell[T] {
	return Signal(rs, s.value, opts...)
}

func (s reader[T]) build(rs *ReactiveSystem, opts []Option[T]) Cell[T] {
	return DeriveWriteable(rs, s.read, nil, opts...)
}

func (s readerWriter[T]) build(rs *ReactiveSystem, opts []Option[T]) Cell[T] {
	return DeriveWriteable(rs, s.read, s.write, opts...)
}

// New builds a cell from src.
func New[T any](rs *ReactiveSystem, src Source[T], opts ...Option[T]) Cell[T] {
	return src.build(rs, opts)
}

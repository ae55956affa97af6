package cells

import "reflect"

// Identical returns the identity comparator for T, the default for every
// cell. Comparable values use ==. Slices are identical when they share a
// backing array and length, maps when they are the same map. Floats compare
// with ==, except that NaN is identical to NaN. Funcs and other
// values that cannot be compared are never identical, so writing them always
// notifies.
func Identical[T any]() func(a, b T) bool {
	t := reflect.TypeFor[T]()
	switch t.Kind() {
	case reflect.Slice:
		return func(a, b T) bool {
			va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
			return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
		}
	case reflect.Map:
		return func(a, b T) bool {
			return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
		}
	case reflect.Interface:
		return func(a, b T) bool {
			return identicalAny(any(a), any(b))
		}
	case reflect.Float32, reflect.Float64:
		return func(a, b T) bool {
			return sameFloat(reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float())
		}
	}
	if t.Comparable() {
		if holdsInterface(t) {
			return func(a, b T) bool {
				return safeEqual(any(a), any(b))
			}
		}
		return func(a, b T) bool {
			return any(a) == any(b)
		}
	}
	return func(a, b T) bool {
		return false
	}
}

// holdsInterface reports whether == on t can panic at run time because an
// interface inside it holds an incomparable value.
func holdsInterface(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Array:
		return holdsInterface(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if holdsInterface(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func sameFloat(a, b float64) bool {
	return a == b || (a != a && b != b)
}

func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// IdenticalAny is Identical for dynamically typed values, suitable for
// WithDefaultEquals.
func IdenticalAny(a, b any) bool {
	return identicalAny(a, b)
}

func identicalAny(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	switch ta.Kind() {
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Float32, reflect.Float64:
		return sameFloat(reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float())
	}
	if ta.Comparable() {
		return safeEqual(a, b)
	}
	return false
}

// DeepEqual compares structurally. Pass it to WithEquals for slices, maps
// and structs that are rebuilt on every write.
func DeepEqual[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

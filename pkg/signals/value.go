package signals

import "reflect"

// Value is the tagged value cell stored per node. A cell is empty until the
// node first commits; after that it holds the last committed value, which
// survives later evaluation failures (stale-on-error). The dynamic type is
// erased at the graph level and re-checked by typed accessors such as As.
type Value struct {
	data  any
	valid bool
}

// ValueOf wraps v as a committed Value. A nil v is a legal payload and is
// how unit-style signals carry "no data".
func ValueOf(v any) Value {
	return Value{data: v, valid: true}
}

// Valid reports whether the cell has ever committed.
func (v Value) Valid() bool {
	return v.valid
}

// Any returns the committed value untyped, or nil for an empty cell.
func (v Value) Any() any {
	if !v.valid {
		return nil
	}
	return v.data
}

// As extracts a typed value from a cell. It reports false when the cell is
// empty or holds a different type. A committed nil payload reads as the
// zero value of T.
func As[T any](v Value) (T, bool) {
	var zero T
	if !v.valid {
		return zero, false
	}
	if v.data == nil {
		return zero, true
	}
	t, ok := v.data.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// valueEquals reports whether two cells hold the same committed value.
// Uses == for common scalar types and reflect.DeepEqual for everything
// else. Empty cells compare equal only to empty cells.
func valueEquals(a, b Value) bool {
	if a.valid != b.valid {
		return false
	}
	if !a.valid {
		return true
	}
	switch av := a.data.(type) {
	case nil:
		return b.data == nil
	case int:
		bv, ok := b.data.(int)
		return ok && av == bv
	case int32:
		bv, ok := b.data.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.data.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.data.(uint)
		return ok && av == bv
	case uint32:
		bv, ok := b.data.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.data.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.data.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.data.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.data.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.data.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a.data, b.data)
	}
}

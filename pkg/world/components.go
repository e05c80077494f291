package world

import "reflect"

// SetComponent attaches v to ent, replacing any previous value of the same
// type. Stale entities are ignored.
func SetComponent[T any](w *World, ent Entity, v T) {
	if !w.alloc.alive(ent) {
		return
	}
	key := reflect.TypeOf((*T)(nil)).Elem()
	row, ok := w.components[key]
	if !ok {
		row = make(map[Entity]any)
		w.components[key] = row
	}
	row[ent] = v
}

// Component reads the T attached to ent.
func Component[T any](w *World, ent Entity) (T, bool) {
	var zero T
	key := reflect.TypeOf((*T)(nil)).Elem()
	row, ok := w.components[key]
	if !ok {
		return zero, false
	}
	v, ok := row[ent]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// RemoveComponent detaches the T from ent, reporting whether one was set.
func RemoveComponent[T any](w *World, ent Entity) bool {
	key := reflect.TypeOf((*T)(nil)).Elem()
	row, ok := w.components[key]
	if !ok {
		return false
	}
	if _, ok := row[ent]; !ok {
		return false
	}
	delete(row, ent)
	return true
}

// EachComponent visits every (entity, value) pair holding a T. Iteration
// order is unspecified. The visitor must not despawn entities; defer that.
func EachComponent[T any](w *World, fn func(Entity, T)) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	for ent, v := range w.components[key] {
		fn(ent, v.(T))
	}
}

// SetResource stores the world-global value of type T.
func SetResource[T any](w *World, v T) {
	w.resources[reflect.TypeOf((*T)(nil)).Elem()] = v
}

// Resource reads the world-global value of type T.
func Resource[T any](w *World) (T, bool) {
	var zero T
	v, ok := w.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// RemoveResource drops the world-global value of type T, reporting whether
// one was set.
func RemoveResource[T any](w *World) bool {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if _, ok := w.resources[key]; !ok {
		return false
	}
	delete(w.resources, key)
	return true
}

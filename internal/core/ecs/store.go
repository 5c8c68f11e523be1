package ecs

import "fmt"

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	removeEntity(id EntityID)
}

// Store is a generic typed map store for one component type.
// Pointers returned by Get stay valid until the component is removed or the
// entity is destroyed.
type Store[T any] struct {
	world *World
	data  map[EntityID]*T
}

// NewStore creates a store bound to w and registers it for destroy cleanup.
func NewStore[T any](w *World) *Store[T] {
	s := &Store[T]{
		world: w,
		data:  make(map[EntityID]*T, 256),
	}
	w.registry.Register(s)
	return s
}

// Add attaches c to id, replacing any previous component of this type.
func (s *Store[T]) Add(id EntityID, c *T) error {
	if !s.world.Alive(id) {
		return fmt.Errorf("add %T to %v: %w", c, id, ErrUnknownEntity)
	}
	s.data[id] = c
	return nil
}

// Get returns the component or (nil, false). Unknown handles are not an error.
func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

// Remove detaches the component from id. Removing a component that is not
// attached to a live entity is a no-op.
func (s *Store[T]) Remove(id EntityID) error {
	if !s.world.Alive(id) {
		return fmt.Errorf("remove %T from %v: %w", (*T)(nil), id, ErrUnknownEntity)
	}
	if s.world.visiting(id) {
		return fmt.Errorf("remove %T from %v: %w", (*T)(nil), id, ErrIllegalIterationMutation)
	}
	delete(s.data, id)
	return nil
}

func (s *Store[T]) removeEntity(id EntityID) {
	delete(s.data, id)
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits every entity in the store exactly once. Components added to
// other entities during the walk are not visited by this call.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	ids := snapshotKeys(s.world.borrow(), s.data)
	defer s.world.release(ids)
	for _, id := range ids {
		c, ok := s.data[id]
		if !ok {
			continue
		}
		s.world.enter(id)
		fn(id, c)
		s.world.leave()
	}
}

// snapshotKeys copies the keys of m into buf.
func snapshotKeys[T any](buf []EntityID, m map[EntityID]*T) []EntityID {
	for id := range m {
		buf = append(buf, id)
	}
	return buf
}

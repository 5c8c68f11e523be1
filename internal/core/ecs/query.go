package ecs

// Each2 iterates over entities that have both component A and B.
// It snapshots the smaller store and checks the larger one at visit time, so
// an entity that lost a component earlier in the same walk is skipped.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	w := sa.world
	var ids []EntityID
	if sa.Len() <= sb.Len() {
		ids = snapshotKeys(w.borrow(), sa.data)
	} else {
		ids = snapshotKeys(w.borrow(), sb.data)
	}
	defer w.release(ids)

	for _, id := range ids {
		a, ok := sa.data[id]
		if !ok {
			continue
		}
		b, ok := sb.data[id]
		if !ok {
			continue
		}
		w.enter(id)
		fn(id, a, b)
		w.leave()
	}
}

// Each3 iterates over entities that have components A, B, and C.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	w := sa.world
	// Snapshot the smallest store
	var ids []EntityID
	switch {
	case sa.Len() <= sb.Len() && sa.Len() <= sc.Len():
		ids = snapshotKeys(w.borrow(), sa.data)
	case sb.Len() <= sc.Len():
		ids = snapshotKeys(w.borrow(), sb.data)
	default:
		ids = snapshotKeys(w.borrow(), sc.data)
	}
	defer w.release(ids)

	for _, id := range ids {
		a, ok := sa.data[id]
		if !ok {
			continue
		}
		b, ok := sb.data[id]
		if !ok {
			continue
		}
		c, ok := sc.data[id]
		if !ok {
			continue
		}
		w.enter(id)
		fn(id, a, b, c)
		w.leave()
	}
}

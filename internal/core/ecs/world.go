package ecs

import "fmt"

// World is the top-level ECS container. It owns the entity pool, the component
// registry, and a deferred destruction queue flushed by the cleanup system at
// the end of each fixed step.
//
// A World is not safe for concurrent use; the simulation thread owns it.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID

	// stack of entities currently yielded by Each calls (nested walks push more)
	visitStack []EntityID
	scratch    [][]EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Len returns the number of live entities.
func (w *World) Len() int { return w.pool.Len() }

// DestroyEntity removes every component of id and invalidates the handle.
func (w *World) DestroyEntity(id EntityID) error {
	if !w.pool.Alive(id) {
		return fmt.Errorf("destroy %v: %w", id, ErrUnknownEntity)
	}
	if w.visiting(id) {
		return fmt.Errorf("destroy %v: %w", id, ErrIllegalIterationMutation)
	}
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
	return nil
}

// MarkForDestruction queues an entity for end-of-step cleanup. Safe to call
// from inside Each for the visited entity.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending returns the number of queued destructions.
func (w *World) Pending() int { return len(w.destroyQueue) }

// FlushDestroyQueue destroys all queued entities and clears their components.
// Handles that died in the meantime are skipped. Returns the number destroyed.
func (w *World) FlushDestroyQueue() (int, error) {
	if len(w.visitStack) > 0 {
		return 0, fmt.Errorf("flush destroy queue: %w", ErrIllegalIterationMutation)
	}
	n := 0
	for _, id := range w.destroyQueue {
		if !w.pool.Alive(id) {
			continue // 重複標記或已被直接銷毀
		}
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
		n++
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n, nil
}

// ── iteration guard ──

func (w *World) enter(id EntityID) { w.visitStack = append(w.visitStack, id) }
func (w *World) leave()            { w.visitStack = w.visitStack[:len(w.visitStack)-1] }

func (w *World) visiting(id EntityID) bool {
	for _, v := range w.visitStack {
		if v == id {
			return true
		}
	}
	return false
}

// borrow hands out a reusable id buffer for one Each call.
func (w *World) borrow() []EntityID {
	if n := len(w.scratch); n > 0 {
		buf := w.scratch[n-1]
		w.scratch = w.scratch[:n-1]
		return buf[:0]
	}
	return make([]EntityID, 0, 64)
}

func (w *World) release(buf []EntityID) {
	w.scratch = append(w.scratch, buf[:0])
}

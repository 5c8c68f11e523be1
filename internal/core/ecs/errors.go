package ecs

import "errors"

var (
	// ErrUnknownEntity is returned when an operation names a destroyed or
	// never-created handle.
	ErrUnknownEntity = errors.New("ecs: unknown entity")

	// ErrIllegalIterationMutation is returned when code removes a component
	// from, or destroys, the entity currently yielded by an Each call.
	// Use World.MarkForDestruction instead.
	ErrIllegalIterationMutation = errors.New("ecs: mutation of entity under iteration")
)

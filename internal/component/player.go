package component

// PlayerTag marks the entity the local player controls.
type PlayerTag struct {
	Name string
}

// TargetLock drives the follow camera's lock state for an entity.
type TargetLock struct {
	Locked  bool
	OffsetY float64
}

// ControlInput holds the most recent movement axes applied to an entity.
// Written by the input system, read by the thrust step.
type ControlInput struct {
	Forward, Backward bool
	Up, Down          bool
	Left, Right       bool
	Yaw               float64
}

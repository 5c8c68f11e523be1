package event

import "github.com/novaengine/nova/internal/core/ecs"

// One-shot input commands. The host emits them as keys arrive; the input
// system dispatches them at the start of the next fixed step.

type FireWeapon struct {
	Entity ecs.EntityID
	Slot   string
}

type ToggleTargetLock struct {
	Entity ecs.EntityID
}

type ApplyCameraPreset struct {
	Index int
}

// DivertPower asks the arbiter to favour one subsystem.
type DivertPower struct {
	Entity    ecs.EntityID
	Subsystem string // "shields", "weapons", "thrusters"
	Amount    float64
}

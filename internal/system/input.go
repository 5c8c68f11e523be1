package system

import (
	"math"

	"github.com/novaengine/nova/internal/combat"
	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/event"
	coresys "github.com/novaengine/nova/internal/core/system"
)

const (
	DefaultThrust = 20.0 // m/s² at full thruster power
	underpowered  = 0.5
)

// PowerGate reports whether an entity's subsystem is powered.
// *combat.PowerArbiter implements it.
type PowerGate interface {
	HasPower(e ecs.EntityID, sub combat.Subsystem) bool
}

// InputSystem releases the commands queued since the last step and turns
// held movement axes into thrust. Phase 0 (Input).
type InputSystem struct {
	comps  *component.Stores
	bus    *event.Bus
	power  PowerGate
	thrust float64
}

// NewInputSystem takes the command bus whose handlers the sim registered.
// power may be nil, in which case thrust is never reduced.
func NewInputSystem(comps *component.Stores, bus *event.Bus, power PowerGate) *InputSystem {
	return &InputSystem{comps: comps, bus: bus, power: power, thrust: DefaultThrust}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// SetThrust sets the full-power acceleration.
func (s *InputSystem) SetThrust(a float64) { s.thrust = math.Max(0, a) }

func (s *InputSystem) Update(dt float64) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()

	ecs.Each2(s.comps.Controls, s.comps.Velocities, func(id ecs.EntityID, in *component.ControlInput, vel *component.Velocity) {
		fwd := axis(in.Forward, in.Backward)
		right := axis(in.Right, in.Left)
		up := axis(in.Up, in.Down)
		if fwd == 0 && right == 0 && up == 0 {
			return
		}
		a := s.thrust
		if s.power != nil && !s.power.HasPower(id, combat.Thrusters) {
			a *= underpowered
		}
		// 與攝影機相同的座標：yaw 0 朝 +Z
		sin, cos := math.Sincos(in.Yaw)
		dx := fwd*sin + right*cos
		dz := fwd*cos - right*sin
		if l := math.Hypot(dx, dz); l > 1 {
			dx, dz = dx/l, dz/l
		}
		vel.VX += dx * a * dt
		vel.VY += up * a * dt
		vel.VZ += dz * a * dt
	})
}

func axis(pos, neg bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}

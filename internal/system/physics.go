package system

import (
	coresys "github.com/novaengine/nova/internal/core/system"
	"github.com/novaengine/nova/internal/physics"
)

// PhysicsSystem integrates rigid bodies and sweeps projectiles against
// obstacles. Phase 4 (Physics).
type PhysicsSystem struct {
	world *physics.World
}

func NewPhysicsSystem(world *physics.World) *PhysicsSystem {
	return &PhysicsSystem{world: world}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt float64) { s.world.Step(dt) }

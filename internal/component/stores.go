package component

import "github.com/novaengine/nova/internal/core/ecs"

// Stores groups the shared component stores of one world. Subsystems that
// keep private state (shields, power, weapon racks) create their own stores.
type Stores struct {
	Positions     *ecs.Store[Position]
	Velocities    *ecs.Store[Velocity]
	Bodies        *ecs.Store[RigidBody]
	TargetLocks   *ecs.Store[TargetLock]
	Projectiles   *ecs.Store[Projectile]
	Damage        *ecs.Store[DamagePayload]
	Lifetimes     *ecs.Store[Lifetime]
	Factions      *ecs.Store[Faction]
	Players       *ecs.Store[PlayerTag]
	Controls      *ecs.Store[ControlInput]
	CameraTargets *ecs.Store[CameraTarget]
	Hulls         *ecs.Store[Hull]
}

func NewStores(w *ecs.World) *Stores {
	return &Stores{
		Positions:     ecs.NewStore[Position](w),
		Velocities:    ecs.NewStore[Velocity](w),
		Bodies:        ecs.NewStore[RigidBody](w),
		TargetLocks:   ecs.NewStore[TargetLock](w),
		Projectiles:   ecs.NewStore[Projectile](w),
		Damage:        ecs.NewStore[DamagePayload](w),
		Lifetimes:     ecs.NewStore[Lifetime](w),
		Factions:      ecs.NewStore[Faction](w),
		Players:       ecs.NewStore[PlayerTag](w),
		Controls:      ecs.NewStore[ControlInput](w),
		CameraTargets: ecs.NewStore[CameraTarget](w),
		Hulls:         ecs.NewStore[Hull](w),
	}
}

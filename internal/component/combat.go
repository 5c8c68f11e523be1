package component

import "github.com/novaengine/nova/internal/core/ecs"

// Projectile marks an entity spawned by a weapon slot.
type Projectile struct {
	Owner ecs.EntityID
	Slot  string
}

// DamagePayload is applied by whatever resolves the projectile's collision.
type DamagePayload struct {
	Amount float64
	Source ecs.EntityID
}

// Lifetime counts down in seconds; the entity is destroyed at ≤ 0.
type Lifetime struct {
	Remaining float64
}

// Faction is only read by collaborators for hostility lookups.
type Faction struct {
	ID int
}

// Hull is structural integrity behind the shield. The entity is destroyed
// when Integrity reaches 0.
type Hull struct {
	Integrity float64
	Max       float64
	Critical  bool // below the critical threshold already announced
}

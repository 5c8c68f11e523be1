package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/feedback"
)

// Vec3 is a plain triple used in slot configs.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// SlotConfig describes one weapon hardpoint.
type SlotConfig struct {
	FireRatePerSec     float64 `yaml:"fire_rate"`
	Ammo               int     `yaml:"ammo"` // -1 = unlimited
	Damage             float64 `yaml:"damage"`
	ProjectileSpeed    float64 `yaml:"projectile_speed"`
	ProjectileLifetime float64 `yaml:"projectile_lifetime"`
	MuzzleOffset       Vec3    `yaml:"muzzle_offset"`
	MuzzleDir          Vec3    `yaml:"muzzle_dir"`
}

// DefaultSlotConfig fires 10/s with unlimited ammo along +X.
func DefaultSlotConfig() SlotConfig {
	return SlotConfig{
		FireRatePerSec: 10,
		Ammo:           -1,
		MuzzleDir:      Vec3{X: 1},
	}
}

// SlotStatus is the derived state of a weapon slot.
type SlotStatus int

const (
	SlotReady SlotStatus = iota
	SlotCoolingDown
	SlotEmpty
)

func (s SlotStatus) String() string {
	switch s {
	case SlotReady:
		return "ready"
	case SlotCoolingDown:
		return "cooling_down"
	case SlotEmpty:
		return "empty"
	}
	return fmt.Sprintf("slot_status(%d)", int(s))
}

type weaponSlot struct {
	cfg      SlotConfig
	cooldown float64
	ammo     int // -1 unlimited
}

func (s *weaponSlot) status() SlotStatus {
	if s.cooldown > 0 {
		return SlotCoolingDown
	}
	if s.ammo == 0 {
		return SlotEmpty
	}
	return SlotReady
}

// WeaponRack is the per-entity slot table.
type WeaponRack struct {
	slots map[string]*weaponSlot
}

// WeaponSystem fires weapons and ages the projectiles they spawn.
type WeaponSystem struct {
	world  *ecs.World
	comps  *component.Stores
	racks  *ecs.Store[WeaponRack]
	events feedback.Emitter
	log    *zap.Logger

	expired []ecs.EntityID
	pending []fireRequest
}

type fireRequest struct {
	entity ecs.EntityID
	slot   string
}

func NewWeaponSystem(w *ecs.World, comps *component.Stores, events feedback.Emitter, log *zap.Logger) *WeaponSystem {
	if events == nil {
		events = feedback.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WeaponSystem{
		world:  w,
		comps:  comps,
		racks:  ecs.NewStore[WeaponRack](w),
		events: events,
		log:    log,
	}
}

// ConfigureSlot installs or replaces a slot and reloads its ammo.
func (s *WeaponSystem) ConfigureSlot(e ecs.EntityID, slot string, cfg SlotConfig) error {
	rack, ok := s.racks.Get(e)
	if !ok {
		rack = &WeaponRack{slots: make(map[string]*weaponSlot)}
		if err := s.racks.Add(e, rack); err != nil {
			return err
		}
	}
	ammo := cfg.Ammo
	if ammo < 0 {
		ammo = -1
	}
	prev := rack.slots[slot]
	ws := &weaponSlot{cfg: cfg, ammo: ammo}
	if prev != nil {
		ws.cooldown = prev.cooldown
	}
	rack.slots[slot] = ws
	return nil
}

func (s *WeaponSystem) slot(e ecs.EntityID, name string) (*weaponSlot, bool) {
	rack, ok := s.racks.Get(e)
	if !ok {
		return nil, false
	}
	ws, ok := rack.slots[name]
	return ws, ok
}

// CanFire reports whether slot is ready. Unknown entities and slots cannot fire.
func (s *WeaponSystem) CanFire(e ecs.EntityID, slot string) bool {
	ws, ok := s.slot(e, slot)
	return ok && s.world.Alive(e) && ws.status() == SlotReady
}

// AmmoCount returns the remaining rounds, or -1 for unlimited or unknown slots.
func (s *WeaponSystem) AmmoCount(e ecs.EntityID, slot string) int {
	ws, ok := s.slot(e, slot)
	if !ok {
		return -1
	}
	return ws.ammo
}

// Status returns the slot state; unknown slots report SlotEmpty.
func (s *WeaponSystem) Status(e ecs.EntityID, slot string) SlotStatus {
	ws, ok := s.slot(e, slot)
	if !ok {
		return SlotEmpty
	}
	return ws.status()
}

// Cooldown returns seconds until the slot may fire again.
func (s *WeaponSystem) Cooldown(e ecs.EntityID, slot string) float64 {
	ws, ok := s.slot(e, slot)
	if !ok {
		return 0
	}
	return ws.cooldown
}

// Fire spawns a projectile from slot. Failures surface only as feedback
// events; the returned bool reports whether a projectile was spawned.
func (s *WeaponSystem) Fire(e ecs.EntityID, slot string) (ecs.EntityID, bool) {
	if !s.world.Alive(e) {
		return ecs.NoEntity, false
	}
	ws, ok := s.slot(e, slot)
	if !ok {
		return ecs.NoEntity, false
	}
	origin, ok := s.comps.Positions.Get(e)
	if !ok {
		return ecs.NoEntity, false
	}

	if ws.cooldown > 0 {
		ev := s.slotEvent(feedback.WeaponOverheat, e, feedback.Warning, slot, *origin)
		ev.Message = slot + " cooling down"
		s.events.Emit(ev)
		return ecs.NoEntity, false
	}
	if ws.ammo == 0 {
		ev := s.slotEvent(feedback.AmmoEmpty, e, feedback.Critical, slot, *origin)
		ev.Message = slot + " ammunition depleted"
		s.events.Emit(ev)
		return ecs.NoEntity, false
	}

	cfg := ws.cfg
	muzzle := component.Position{
		X: origin.X + cfg.MuzzleOffset.X,
		Y: origin.Y + cfg.MuzzleOffset.Y,
		Z: origin.Z + cfg.MuzzleOffset.Z,
	}
	p := s.world.CreateEntity()
	// 新實體一定存活，Add 不會失敗
	_ = s.comps.Positions.Add(p, &muzzle)
	_ = s.comps.Velocities.Add(p, &component.Velocity{
		VX: cfg.MuzzleDir.X * cfg.ProjectileSpeed,
		VY: cfg.MuzzleDir.Y * cfg.ProjectileSpeed,
		VZ: cfg.MuzzleDir.Z * cfg.ProjectileSpeed,
	})
	_ = s.comps.Bodies.Add(p, &component.RigidBody{Mass: 1})
	_ = s.comps.Projectiles.Add(p, &component.Projectile{Owner: e, Slot: slot})
	_ = s.comps.Damage.Add(p, &component.DamagePayload{Amount: cfg.Damage, Source: e})
	_ = s.comps.Lifetimes.Add(p, &component.Lifetime{Remaining: nonNegative(cfg.ProjectileLifetime)})

	ev := s.slotEvent(feedback.WeaponFired, e, feedback.Info, slot, muzzle)
	ev.Magnitude = cfg.Damage
	ev.Message = slot + " fired"
	s.events.Emit(ev)

	if cfg.FireRatePerSec > 0 {
		ws.cooldown = 1 / cfg.FireRatePerSec
	}
	if ws.ammo > 0 {
		ws.ammo--
	}
	return p, true
}

// RequestFire queues a shot for the next Update. Queued shots are released
// after cooldowns and projectile ages have advanced, so a projectile fired in
// a step is first aged in the following one and its slot starts from a full
// cooldown.
func (s *WeaponSystem) RequestFire(e ecs.EntityID, slot string) {
	s.pending = append(s.pending, fireRequest{entity: e, slot: slot})
}

// Pending returns the number of queued shots.
func (s *WeaponSystem) Pending() int { return len(s.pending) }

func (s *WeaponSystem) slotEvent(t feedback.Type, e ecs.EntityID, sev feedback.Severity, slot string, at component.Position) feedback.Event {
	ev := feedback.New(t, e, sev)
	ev.Component = slot
	ev.X, ev.Y, ev.Z = at.X, at.Y, at.Z
	return ev
}

// Update counts down cooldowns, ages projectiles and destroys the expired
// ones once the walk is over, then releases queued shots.
func (s *WeaponSystem) Update(dt float64) {
	if !(dt > 0) {
		return
	}
	defer s.releasePending()

	s.racks.Each(func(_ ecs.EntityID, rack *WeaponRack) {
		for _, ws := range rack.slots {
			if ws.cooldown > 0 {
				ws.cooldown -= dt
				if ws.cooldown <= 0 {
					ws.cooldown = 0
				}
			}
		}
	})

	s.expired = s.expired[:0]
	ecs.Each2(s.comps.Lifetimes, s.comps.Projectiles, func(id ecs.EntityID, life *component.Lifetime, _ *component.Projectile) {
		life.Remaining -= dt
		if life.Remaining <= 0 {
			life.Remaining = 0
			s.expired = append(s.expired, id)
		}
	})
	for _, id := range s.expired {
		if err := s.world.DestroyEntity(id); err != nil {
			s.log.Debug("projectile already gone", zap.Stringer("entity", id), zap.Error(err))
		}
	}
}

func (s *WeaponSystem) releasePending() {
	for i, req := range s.pending {
		s.Fire(req.entity, req.slot)
		s.pending[i] = fireRequest{}
	}
	s.pending = s.pending[:0]
}

// Projectiles returns the number of live projectiles.
func (s *WeaponSystem) Projectiles() int { return s.comps.Projectiles.Len() }

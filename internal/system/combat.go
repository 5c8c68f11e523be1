package system

import (
	"github.com/novaengine/nova/internal/combat"
	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
	coresys "github.com/novaengine/nova/internal/core/system"
)

// WeaponSystem advances cooldowns and ages projectiles. Phase 1 (Weapons).
type WeaponSystem struct {
	weapons *combat.WeaponSystem
}

func NewWeaponSystem(weapons *combat.WeaponSystem) *WeaponSystem {
	return &WeaponSystem{weapons: weapons}
}

func (s *WeaponSystem) Phase() coresys.Phase { return coresys.PhaseWeapons }

func (s *WeaponSystem) Update(dt float64) { s.weapons.Update(dt) }

// ShieldSystem runs passive recharge. Phase 2 (Shields).
type ShieldSystem struct {
	shields *combat.ShieldRegulator
}

func NewShieldSystem(shields *combat.ShieldRegulator) *ShieldSystem {
	return &ShieldSystem{shields: shields}
}

func (s *ShieldSystem) Phase() coresys.Phase { return coresys.PhaseShields }

func (s *ShieldSystem) Update(dt float64) { s.shields.Update(dt) }

// Requirements is an entity's full-load draw per subsystem in MW.
type Requirements struct {
	Shields, Weapons, Thrusters float64
}

// Idle draw as a fraction of the full requirement.
const (
	idleShieldDraw   = 0.3
	idleWeaponDraw   = 0.2
	idleThrusterDraw = 0.1
)

// PowerSystem derives each tracked entity's demand from what it is doing
// this step, then rebalances every budget. Phase 3 (Power).
//
// Shields draw full power while below capacity, weapons while a slot is
// cooling down, thrusters while a movement axis is held.
type PowerSystem struct {
	arbiter *combat.PowerArbiter
	shields *combat.ShieldRegulator
	weapons *combat.WeaponSystem
	comps   *component.Stores

	tracked map[ecs.EntityID]tracked
	order   []ecs.EntityID
	gone    []ecs.EntityID
}

type tracked struct {
	req   Requirements
	slots []string
}

func NewPowerSystem(arbiter *combat.PowerArbiter, shields *combat.ShieldRegulator, weapons *combat.WeaponSystem, comps *component.Stores) *PowerSystem {
	return &PowerSystem{
		arbiter: arbiter,
		shields: shields,
		weapons: weapons,
		comps:   comps,
		tracked: make(map[ecs.EntityID]tracked),
	}
}

func (s *PowerSystem) Phase() coresys.Phase { return coresys.PhasePower }

// Track makes e's demand follow its activity. slots are the weapon slots
// whose cooldown counts as weapon load.
func (s *PowerSystem) Track(e ecs.EntityID, req Requirements, slots ...string) {
	if _, ok := s.tracked[e]; !ok {
		s.order = append(s.order, e)
	}
	s.tracked[e] = tracked{req: req, slots: slots}
}

// Untrack stops demand updates for e. The arbiter entry is left alone.
func (s *PowerSystem) Untrack(e ecs.EntityID) {
	if _, ok := s.tracked[e]; !ok {
		return
	}
	delete(s.tracked, e)
	for i, id := range s.order {
		if id == e {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Tracked returns the number of entities whose demand follows activity.
func (s *PowerSystem) Tracked() int { return len(s.order) }

// Update refreshes demand and rebalances. Entities whose reactor is gone,
// e.g. destroyed ships, are untracked.
func (s *PowerSystem) Update(dt float64) {
	s.gone = s.gone[:0]
	for _, e := range s.order {
		t := s.tracked[e]
		st, ok := s.arbiter.State(e)
		if !ok {
			s.gone = append(s.gone, e)
			continue
		}
		shield := t.req.Shields * idleShieldDraw
		if sh, ok := s.shields.State(e); ok && sh.Active && sh.CurrentCapacityMJ < sh.MaxCapacityMJ {
			shield = t.req.Shields
		}
		weapon := t.req.Weapons * idleWeaponDraw
		for _, slot := range t.slots {
			if s.weapons.Cooldown(e, slot) > 0 {
				weapon = t.req.Weapons
				break
			}
		}
		thruster := t.req.Thrusters * idleThrusterDraw
		if in, ok := s.comps.Controls.Get(e); ok && moving(in) {
			thruster = t.req.Thrusters
		}
		s.arbiter.UpdateDemand(e, st.TotalPowerMW, st.AvailablePowerMW, shield, weapon, thruster)
	}
	for _, e := range s.gone {
		s.Untrack(e)
	}
	s.arbiter.Update(dt)
}

func moving(in *component.ControlInput) bool {
	return in.Forward || in.Backward || in.Left || in.Right || in.Up || in.Down
}

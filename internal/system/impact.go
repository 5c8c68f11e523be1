package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/combat"
	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
	coresys "github.com/novaengine/nova/internal/core/system"
	"github.com/novaengine/nova/internal/feedback"
	"github.com/novaengine/nova/internal/physics"
)

const (
	DefaultHitRadius  = 1.5  // m
	criticalHullRatio = 0.25 // CriticalDamage fires once below this
	targetCellSize    = 16.0 // m, broad-phase grid
)

// ImpactSystem resolves projectile hits on ships: damage goes through the
// target's shield and the overflow into its hull. Register it after
// PhysicsSystem so it sees this step's positions. Phase 4 (Physics).
type ImpactSystem struct {
	world   *ecs.World
	comps   *component.Stores
	shields *combat.ShieldRegulator
	events  feedback.Emitter
	log     *zap.Logger
	radius  float64

	shots   []shot
	targets []target
	grid    *physics.Grid
	hits    uint64
}

type shot struct {
	id       ecs.EntityID
	from, to mgl64.Vec3
	owner    ecs.EntityID
	damage   float64
}

type target struct {
	id      ecs.EntityID
	at      mgl64.Vec3
	faction int
}

func NewImpactSystem(w *ecs.World, comps *component.Stores, shields *combat.ShieldRegulator, events feedback.Emitter, log *zap.Logger) *ImpactSystem {
	if events == nil {
		events = feedback.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ImpactSystem{
		world:   w,
		comps:   comps,
		shields: shields,
		events:  events,
		log:     log,
		radius:  DefaultHitRadius,
		grid:    physics.NewGrid(targetCellSize),
	}
}

func (s *ImpactSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

// Hits counts projectiles that struck a ship.
func (s *ImpactSystem) Hits() uint64 { return s.hits }

func (s *ImpactSystem) Update(dt float64) {
	s.collect(dt)
	if len(s.shots) == 0 || len(s.targets) == 0 {
		return
	}
	r := s.radius
	for _, sh := range s.shots {
		ownerFaction, hasFaction := s.faction(sh.owner)
		best, bestT := -1, math.Inf(1)
		s.grid.Query(
			math.Min(sh.from.X(), sh.to.X())-r, math.Min(sh.from.Z(), sh.to.Z())-r,
			math.Max(sh.from.X(), sh.to.X())+r, math.Max(sh.from.Z(), sh.to.Z())+r,
			func(i int) {
				t := &s.targets[i]
				if t.id == sh.owner || (hasFaction && t.faction == ownerFaction) {
					return
				}
				d2, along := segmentDist(sh.from, sh.to, t.at)
				if d2 > r*r {
					return
				}
				// 同一步掃過多個目標時取最先碰到的
				if along < bestT || (along == bestT && i < best) {
					best, bestT = i, along
				}
			})
		if best >= 0 {
			s.resolve(sh, s.targets[best])
		}
	}
}

func (s *ImpactSystem) collect(dt float64) {
	s.shots = s.shots[:0]
	s.targets = s.targets[:0]
	ecs.Each3(s.comps.Projectiles, s.comps.Positions, s.comps.Damage,
		func(id ecs.EntityID, p *component.Projectile, pos *component.Position, dmg *component.DamagePayload) {
			to := mgl64.Vec3{pos.X, pos.Y, pos.Z}
			from := to
			if v, ok := s.comps.Velocities.Get(id); ok {
				from = to.Sub(mgl64.Vec3{v.VX, v.VY, v.VZ}.Mul(dt))
			}
			s.shots = append(s.shots, shot{id: id, from: from, to: to, owner: p.Owner, damage: dmg.Amount})
		})
	ecs.Each2(s.comps.Factions, s.comps.Positions, func(id ecs.EntityID, f *component.Faction, pos *component.Position) {
		if s.comps.Projectiles.Has(id) {
			return
		}
		s.targets = append(s.targets, target{id: id, at: mgl64.Vec3{pos.X, pos.Y, pos.Z}, faction: f.ID})
	})
	s.grid.Reset()
	for i, t := range s.targets {
		s.grid.Insert(i, t.at.X(), t.at.Z())
	}
}

func (s *ImpactSystem) faction(e ecs.EntityID) (int, bool) {
	if f, ok := s.comps.Factions.Get(e); ok {
		return f.ID, true
	}
	return 0, false
}

func (s *ImpactSystem) resolve(sh shot, t target) {
	s.hits++
	s.world.MarkForDestruction(sh.id)

	st, shielded := s.shields.State(t.id)
	hull := s.shields.ApplyDamage(t.id, sh.damage)
	if hull <= 0 {
		return
	}
	if shielded && st.Active {
		// 無護盾時 ApplyDamage 已發出 HullDamage
		ev := feedback.New(feedback.HullDamage, t.id, feedback.Warning)
		ev.Magnitude = hull
		ev.X, ev.Y, ev.Z = t.at.X(), t.at.Y(), t.at.Z()
		s.events.Emit(ev)
	}

	h, ok := s.comps.Hulls.Get(t.id)
	if !ok || h.Max <= 0 || h.Integrity <= 0 {
		return
	}
	h.Integrity -= hull
	if h.Integrity <= 0 {
		h.Integrity = 0
		ev := feedback.New(feedback.HullBreach, t.id, feedback.Emergency)
		ev.X, ev.Y, ev.Z = t.at.X(), t.at.Y(), t.at.Z()
		ev.Message = "hull breach"
		s.events.Emit(ev)
		s.world.MarkForDestruction(t.id)
		s.log.Info("ship destroyed",
			zap.Stringer("entity", t.id),
			zap.Stringer("by", sh.owner))
		return
	}
	if !h.Critical && h.Integrity <= h.Max*criticalHullRatio {
		h.Critical = true
		ev := feedback.New(feedback.CriticalDamage, t.id, feedback.Critical)
		ev.Magnitude = h.Integrity
		ev.X, ev.Y, ev.Z = t.at.X(), t.at.Y(), t.at.Z()
		s.events.Emit(ev)
	}
}

// segmentDist returns the squared distance from p to segment ab and the
// normalised position along ab of the closest point.
func segmentDist(a, b, p mgl64.Vec3) (distSq, along float64) {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		d := p.Sub(a)
		return d.Dot(d), 0
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	d := p.Sub(a.Add(ab.Mul(t)))
	return d.Dot(d), t
}

// Package combat holds the ship combat substrate: shield regulation, power
// arbitration and weapon firing with projectile lifetimes. State lives in ECS
// stores so it disappears with its entity.
package combat

import (
	"math"

	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/feedback"
)

const lowShieldFraction = 0.25

// ShieldState is the per-entity shield record.
type ShieldState struct {
	MaxCapacityMJ        float64
	CurrentCapacityMJ    float64
	RechargeRateMJPerSec float64
	RechargeDelaySeconds float64
	DamageAbsorption     float64 // [0,1]
	TimeSinceLastHit     float64
	Active               bool
	ComponentID          string
}

// Percentage returns current/max in [0,1], or 0 for a zero-capacity shield.
func (s *ShieldState) Percentage() float64 {
	if s.MaxCapacityMJ <= 0 {
		return 0
	}
	return s.CurrentCapacityMJ / s.MaxCapacityMJ
}

// ShieldRegulator owns shield state for every shielded entity.
type ShieldRegulator struct {
	world   *ecs.World
	shields *ecs.Store[ShieldState]
	events  feedback.Emitter
	log     *zap.Logger
}

func NewShieldRegulator(w *ecs.World, events feedback.Emitter, log *zap.Logger) *ShieldRegulator {
	if events == nil {
		events = feedback.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ShieldRegulator{
		world:   w,
		shields: ecs.NewStore[ShieldState](w),
		events:  events,
		log:     log,
	}
}

// Initialize creates a fully charged shield that may recharge immediately.
func (r *ShieldRegulator) Initialize(e ecs.EntityID, capacity, rechargeRate, rechargeDelay, absorption float64, componentID string) error {
	capacity = nonNegative(capacity)
	rechargeDelay = nonNegative(rechargeDelay)
	st := &ShieldState{
		MaxCapacityMJ:        capacity,
		CurrentCapacityMJ:    capacity,
		RechargeRateMJPerSec: nonNegative(rechargeRate),
		RechargeDelaySeconds: rechargeDelay,
		DamageAbsorption:     clamp01(absorption),
		TimeSinceLastHit:     rechargeDelay,
		Active:               true,
		ComponentID:          componentID,
	}
	if err := r.shields.Add(e, st); err != nil {
		return err
	}
	r.log.Debug("shield initialized",
		zap.Stringer("entity", e),
		zap.Float64("capacity_mj", capacity),
		zap.String("component", componentID))
	return nil
}

// ApplyDamage runs damage through the shield and returns what reaches the
// hull. Without an active shield the full amount passes through.
func (r *ShieldRegulator) ApplyDamage(e ecs.EntityID, damage float64) float64 {
	damage = nonNegative(damage)
	st, ok := r.shields.Get(e)
	if !ok || !st.Active {
		ev := feedback.New(feedback.HullDamage, e, feedback.Warning)
		ev.Magnitude = damage
		r.events.Emit(ev)
		return damage
	}

	absorbed := damage * st.DamageAbsorption
	hull := damage - absorbed

	hit := feedback.New(feedback.ShieldHit, e, feedback.Info)
	hit.Magnitude = absorbed
	hit.Component = st.ComponentID
	r.events.Emit(hit)

	if st.CurrentCapacityMJ >= absorbed {
		st.CurrentCapacityMJ -= absorbed
	} else {
		// 護盾不足的部分溢流到船體
		hull += absorbed - st.CurrentCapacityMJ
		st.CurrentCapacityMJ = 0
		depleted := feedback.New(feedback.ShieldDepleted, e, feedback.Critical)
		depleted.Component = st.ComponentID
		r.events.Emit(depleted)
	}
	// a zero-damage hit still counts as a hit
	st.TimeSinceLastHit = 0
	return hull
}

// Recharge adds amount directly, bounded by capacity. Inactive shields ignore it.
func (r *ShieldRegulator) Recharge(e ecs.EntityID, amount float64) {
	st, ok := r.shields.Get(e)
	if !ok || !st.Active || math.IsNaN(amount) {
		return
	}
	st.CurrentCapacityMJ = math.Max(0, math.Min(st.MaxCapacityMJ, st.CurrentCapacityMJ+amount))
}

// SetActive toggles the shield. Inactive shields let damage through and do
// not recharge.
func (r *ShieldRegulator) SetActive(e ecs.EntityID, active bool) {
	if st, ok := r.shields.Get(e); ok {
		st.Active = active
	}
}

// Percentage returns the charge fraction in [0,1]; 0 for unknown entities.
func (r *ShieldRegulator) Percentage(e ecs.EntityID) float64 {
	st, ok := r.shields.Get(e)
	if !ok {
		return 0
	}
	return st.Percentage()
}

// State returns a copy of the shield state.
func (r *ShieldRegulator) State(e ecs.EntityID) (ShieldState, bool) {
	st, ok := r.shields.Get(e)
	if !ok {
		return ShieldState{}, false
	}
	return *st, true
}

func (r *ShieldRegulator) Len() int { return r.shields.Len() }

// Update runs passive recharge for every shield and emits status events.
func (r *ShieldRegulator) Update(dt float64) {
	if !(dt > 0) {
		return
	}
	r.shields.Each(func(e ecs.EntityID, st *ShieldState) {
		r.tick(e, st, dt)
	})
}

func (r *ShieldRegulator) tick(e ecs.EntityID, st *ShieldState, dt float64) {
	if !st.Active {
		return
	}
	prev := st.CurrentCapacityMJ
	// 以本 tick 開始前的受擊間隔判斷，受擊後同一 tick 不會立即回充
	ready := st.TimeSinceLastHit >= st.RechargeDelaySeconds
	st.TimeSinceLastHit += dt

	if ready {
		st.CurrentCapacityMJ = math.Min(st.MaxCapacityMJ, st.CurrentCapacityMJ+st.RechargeRateMJPerSec*dt)

		if prev > 0 && prev < st.MaxCapacityMJ && st.CurrentCapacityMJ > prev {
			ev := feedback.New(feedback.ShieldRecharging, e, feedback.Info)
			ev.Magnitude = st.Percentage() * 100
			ev.Component = st.ComponentID
			r.events.Emit(ev)
		}
		if prev < st.MaxCapacityMJ && st.CurrentCapacityMJ >= st.MaxCapacityMJ {
			ev := feedback.New(feedback.ShieldFullyCharged, e, feedback.Info)
			ev.Component = st.ComponentID
			r.events.Emit(ev)
		}
	}

	if pct := st.Percentage(); pct > 0 && pct < lowShieldFraction {
		ev := feedback.New(feedback.WarningLowShields, e, feedback.Warning)
		ev.Magnitude = pct * 100
		ev.Component = st.ComponentID
		r.events.Emit(ev)
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

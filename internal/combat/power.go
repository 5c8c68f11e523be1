package combat

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/feedback"
)

// Subsystem names a power consumer.
type Subsystem int

const (
	Shields Subsystem = iota
	Weapons
	Thrusters
)

func (s Subsystem) String() string {
	switch s {
	case Shields:
		return "shields"
	case Weapons:
		return "weapons"
	case Thrusters:
		return "thrusters"
	}
	return fmt.Sprintf("subsystem(%d)", int(s))
}

// ParseSubsystem accepts "shields", "weapons" or "thrusters" in any case.
func ParseSubsystem(name string) (Subsystem, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shields", "shield":
		return Shields, nil
	case "weapons", "weapon":
		return Weapons, nil
	case "thrusters", "thruster", "engines":
		return Thrusters, nil
	}
	return 0, fmt.Errorf("unknown subsystem %q", name)
}

const (
	defaultOverloadThreshold = 1.1
	divertStep               = 0.1
	divertDecay              = 0.9
	poweredFraction          = 0.5
)

// PowerState is the per-entity power budget.
type PowerState struct {
	TotalPowerMW     float64
	AvailablePowerMW float64

	ShieldAllocation   float64
	WeaponAllocation   float64
	ThrusterAllocation float64

	ShieldPowerMW   float64
	WeaponPowerMW   float64
	ThrusterPowerMW float64

	ShieldRequirementMW   float64
	WeaponRequirementMW   float64
	ThrusterRequirementMW float64

	OverloadProtection bool
	OverloadThreshold  float64 // ≥ 1

	Overloaded bool // demand above threshold at the last balance
	LowPower   bool // every subsystem under half its requirement
}

// Delivered returns the power currently routed to sub.
func (p *PowerState) Delivered(sub Subsystem) float64 {
	switch sub {
	case Shields:
		return p.ShieldPowerMW
	case Weapons:
		return p.WeaponPowerMW
	case Thrusters:
		return p.ThrusterPowerMW
	}
	return 0
}

// Requirement returns the demand of sub.
func (p *PowerState) Requirement(sub Subsystem) float64 {
	switch sub {
	case Shields:
		return p.ShieldRequirementMW
	case Weapons:
		return p.WeaponRequirementMW
	case Thrusters:
		return p.ThrusterRequirementMW
	}
	return 0
}

// Demand is the summed requirement.
func (p *PowerState) Demand() float64 {
	return p.ShieldRequirementMW + p.WeaponRequirementMW + p.ThrusterRequirementMW
}

func (p *PowerState) powered(sub Subsystem) bool {
	return p.Delivered(sub) >= p.Requirement(sub)*poweredFraction
}

// PowerArbiter splits each entity's power budget across shields, weapons
// and thrusters.
type PowerArbiter struct {
	world  *ecs.World
	states *ecs.Store[PowerState]
	events feedback.Emitter
	log    *zap.Logger
}

func NewPowerArbiter(w *ecs.World, events feedback.Emitter, log *zap.Logger) *PowerArbiter {
	if events == nil {
		events = feedback.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PowerArbiter{
		world:  w,
		states: ecs.NewStore[PowerState](w),
		events: events,
		log:    log,
	}
}

// Initialize creates a balanced budget with all of total available.
func (a *PowerArbiter) Initialize(e ecs.EntityID, total, shieldReq, weaponReq, thrusterReq float64) error {
	total = nonNegative(total)
	st := &PowerState{
		TotalPowerMW:          total,
		AvailablePowerMW:      total,
		ShieldAllocation:      0.33,
		WeaponAllocation:      0.33,
		ThrusterAllocation:    0.34,
		ShieldRequirementMW:   nonNegative(shieldReq),
		WeaponRequirementMW:   nonNegative(weaponReq),
		ThrusterRequirementMW: nonNegative(thrusterReq),
		OverloadProtection:    true,
		OverloadThreshold:     defaultOverloadThreshold,
	}
	if err := a.states.Add(e, st); err != nil {
		return err
	}
	a.balance(e, st)
	a.log.Debug("power initialized", zap.Stringer("entity", e), zap.Float64("total_mw", total))
	return nil
}

// SetAllocation renormalizes (s, w, t) to sum to 1. A non-positive sum is
// ignored.
func (a *PowerArbiter) SetAllocation(e ecs.EntityID, shields, weapons, thrusters float64) {
	st, ok := a.states.Get(e)
	if !ok {
		return
	}
	shields, weapons, thrusters = nonNegative(shields), nonNegative(weapons), nonNegative(thrusters)
	if sum := shields + weapons + thrusters; sum > 0 && !math.IsInf(sum, 0) {
		st.ShieldAllocation = shields / sum
		st.WeaponAllocation = weapons / sum
		st.ThrusterAllocation = thrusters / sum
	}
	a.balance(e, st)
}

// SetOverloadProtection configures the overload guard. Thresholds below 1
// are raised to 1.
func (a *PowerArbiter) SetOverloadProtection(e ecs.EntityID, on bool, threshold float64) {
	st, ok := a.states.Get(e)
	if !ok {
		return
	}
	st.OverloadProtection = on
	if !math.IsNaN(threshold) && !math.IsInf(threshold, 0) {
		st.OverloadThreshold = math.Max(1, threshold)
	}
	a.balance(e, st)
}

// UpdateDemand replaces supply and requirements. Negative inputs clamp to 0
// and available never exceeds total.
func (a *PowerArbiter) UpdateDemand(e ecs.EntityID, total, available, shieldReq, weaponReq, thrusterReq float64) {
	st, ok := a.states.Get(e)
	if !ok {
		return
	}
	st.TotalPowerMW = nonNegative(total)
	st.AvailablePowerMW = math.Min(nonNegative(available), st.TotalPowerMW)
	st.ShieldRequirementMW = nonNegative(shieldReq)
	st.WeaponRequirementMW = nonNegative(weaponReq)
	st.ThrusterRequirementMW = nonNegative(thrusterReq)
	a.balance(e, st)
}

// DivertPower shifts allocation toward priority and announces the diversion.
func (a *PowerArbiter) DivertPower(e ecs.EntityID, priority Subsystem, amount float64) {
	st, ok := a.states.Get(e)
	if !ok {
		return
	}
	ev := feedback.New(feedback.EnergyDiverted, e, feedback.Info)
	ev.Magnitude = amount
	ev.Component = priority.String()
	a.events.Emit(ev)

	alloc := [3]*float64{&st.ShieldAllocation, &st.WeaponAllocation, &st.ThrusterAllocation}
	for i, p := range alloc {
		if Subsystem(i) == priority {
			*p = math.Min(1, *p+divertStep)
		} else {
			*p *= divertDecay
		}
	}
	if sum := st.ShieldAllocation + st.WeaponAllocation + st.ThrusterAllocation; sum > 0 {
		for _, p := range alloc {
			*p /= sum
		}
	}
	a.balance(e, st)
}

// HasPower reports whether sub receives at least half its requirement.
// Unknown entities have no power.
func (a *PowerArbiter) HasPower(e ecs.EntityID, sub Subsystem) bool {
	st, ok := a.states.Get(e)
	if !ok {
		return false
	}
	return st.powered(sub)
}

// State returns a copy of the power state.
func (a *PowerArbiter) State(e ecs.EntityID) (PowerState, bool) {
	st, ok := a.states.Get(e)
	if !ok {
		return PowerState{}, false
	}
	return *st, true
}

// UpdateEntity rebalances one entity.
func (a *PowerArbiter) UpdateEntity(e ecs.EntityID, _ float64) {
	if st, ok := a.states.Get(e); ok {
		a.balance(e, st)
	}
}

// Update rebalances every entity with a power budget.
func (a *PowerArbiter) Update(dt float64) {
	a.states.Each(func(e ecs.EntityID, st *PowerState) {
		a.balance(e, st)
	})
}

func (a *PowerArbiter) Len() int { return a.states.Len() }

func (a *PowerArbiter) balance(e ecs.EntityID, st *PowerState) {
	st.ShieldPowerMW = st.AvailablePowerMW * st.ShieldAllocation
	st.WeaponPowerMW = st.AvailablePowerMW * st.WeaponAllocation
	st.ThrusterPowerMW = st.AvailablePowerMW * st.ThrusterAllocation

	demand := st.Demand()
	limit := st.TotalPowerMW * st.OverloadThreshold
	overloaded := st.OverloadProtection && demand > limit
	if overloaded {
		k := limit / demand
		st.ShieldPowerMW *= k
		st.WeaponPowerMW *= k
		st.ThrusterPowerMW *= k
	}

	// 只在進入過載時發出事件，避免每 tick 重複
	if overloaded && !st.Overloaded {
		ev := feedback.New(feedback.PowerOverload, e, feedback.Warning)
		if st.TotalPowerMW > 0 {
			ev.Magnitude = demand / st.TotalPowerMW
		}
		ev.Message = "power overload, output reduced"
		a.events.Emit(ev)
		a.log.Warn("power overload",
			zap.Stringer("entity", e),
			zap.Float64("demand_mw", demand),
			zap.Float64("limit_mw", limit))
	}
	st.Overloaded = overloaded

	low := demand > 0 && !st.powered(Shields) && !st.powered(Weapons) && !st.powered(Thrusters)
	if low && !st.LowPower {
		a.events.Emit(feedback.New(feedback.WarningLowPower, e, feedback.Warning))
	}
	st.LowPower = low
}

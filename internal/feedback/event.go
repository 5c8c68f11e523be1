package feedback

import (
	"fmt"

	"github.com/novaengine/nova/internal/core/ecs"
)

// Type identifies what happened.
type Type int

const (
	ShieldHit Type = iota
	ShieldDepleted
	ShieldRecharging
	ShieldFullyCharged

	HullDamage
	CriticalDamage
	SubsystemFailure
	HullBreach

	WeaponFired
	WeaponOverheat
	AmmoEmpty

	PowerOverload
	PowerCritical
	EnergyDiverted

	WarningLowShields
	WarningLowPower
	WarningOverheating
	AlarmCritical
	AlarmEvacuate
)

var typeNames = [...]string{
	"shield_hit", "shield_depleted", "shield_recharging", "shield_fully_charged",
	"hull_damage", "critical_damage", "subsystem_failure", "hull_breach",
	"weapon_fired", "weapon_overheat", "ammo_empty",
	"power_overload", "power_critical", "energy_diverted",
	"warning_low_shields", "warning_low_power", "warning_overheating", "alarm_critical", "alarm_evacuate",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Severity levels for alerts.
type Severity int

const (
	Info      Severity = iota // 藍：資訊
	Warning                   // 黃：需注意
	Critical                  // 紅：立即處理
	Emergency                 // 閃紅：致命
)

var severityNames = [...]string{"info", "warning", "critical", "emergency"}

func (s Severity) String() string {
	if s >= 0 && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Event is one gameplay occurrence broadcast to HUD/audio/visual listeners.
type Event struct {
	Type      Type
	Entity    ecs.EntityID
	Severity  Severity
	Magnitude float64 // damage amount, shield percentage, etc.
	X, Y, Z   float64 // world position for spatial effects
	Component string  // which component or slot triggered it
	Message   string  // optional HUD text
}

// New returns an event with zero magnitude and position.
func New(t Type, entity ecs.EntityID, sev Severity) Event {
	return Event{Type: t, Entity: entity, Severity: sev}
}

// ParseSeverity maps a lower-case severity name to its level. Unknown names
// report false.
func ParseSeverity(s string) (Severity, bool) {
	for i, name := range severityNames {
		if name == s {
			return Severity(i), true
		}
	}
	return Info, false
}

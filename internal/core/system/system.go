package system

// Phase defines execution ordering within a single fixed step.
type Phase int

const (
	PhaseInput      Phase = iota // 0: apply pending input commands
	PhaseWeapons                 // 1: cooldowns + projectile aging
	PhaseShields                 // 2: passive recharge, warnings
	PhasePower                   // 3: power arbitration per entity
	PhasePhysics                 // 4: external physics integration
	PhasePostUpdate              // 5: scripts, bookkeeping
	PhaseCleanup                 // 6: destroy queued entities
)

var phaseNames = [...]string{"input", "weapons", "shields", "power", "physics", "post_update", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every simulation system implements.
// dt is the fixed step in seconds.
type System interface {
	Phase() Phase
	Update(dt float64)
}

package system

import (
	coresys "github.com/novaengine/nova/internal/core/system"
)

// Ticker is a per-step hook; *scripting.Engine implements it.
type Ticker interface {
	Tick(dt float64)
}

// ScriptSystem gives mission scripts one on_tick per step after physics.
// Phase 5 (PostUpdate).
type ScriptSystem struct {
	scripts Ticker
}

func NewScriptSystem(scripts Ticker) *ScriptSystem {
	return &ScriptSystem{scripts: scripts}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ScriptSystem) Update(dt float64) { s.scripts.Tick(dt) }

package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (s recordSystem) Phase() Phase      { return s.phase }
func (s recordSystem) Update(dt float64) { *s.log = append(*s.log, s.name) }

func TestRunner_PhaseOrderStable(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recordSystem{"cleanup", PhaseCleanup, &log})
	r.Register(recordSystem{"shield", PhaseShields, &log})
	r.Register(recordSystem{"weapon", PhaseWeapons, &log})
	r.Register(recordSystem{"projectile", PhaseWeapons, &log})
	r.Register(recordSystem{"input", PhaseInput, &log})

	r.Tick(1.0 / 60)
	assert.Equal(t, []string{"input", "weapon", "projectile", "shield", "cleanup"}, log)
}

func TestRunner_TickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recordSystem{"a", PhasePower, &log})
	r.Register(recordSystem{"b", PhasePhysics, &log})
	r.TickPhase(PhasePhysics, 0.1)
	assert.Equal(t, []string{"b"}, log)
	assert.Equal(t, "physics", PhasePhysics.String())
}

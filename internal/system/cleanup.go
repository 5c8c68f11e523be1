package system

import (
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/ecs"
	coresys "github.com/novaengine/nova/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at step end.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world     *ecs.World
	log       *zap.Logger
	destroyed uint64
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ float64) {
	if s.world.Pending() == 0 {
		return
	}
	n, err := s.world.FlushDestroyQueue()
	if err != nil {
		s.log.Error("flush destroy queue", zap.Error(err))
		return
	}
	s.destroyed += uint64(n)
}

// Destroyed counts entities removed since creation.
func (s *CleanupSystem) Destroyed() uint64 { return s.destroyed }

// Package sim owns the ECS world and drives every subsystem in a fixed order
// each simulation step.
package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/camera"
	"github.com/novaengine/nova/internal/combat"
	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/event"
	coresys "github.com/novaengine/nova/internal/core/system"
	"github.com/novaengine/nova/internal/data"
	"github.com/novaengine/nova/internal/feedback"
	"github.com/novaengine/nova/internal/physics"
	"github.com/novaengine/nova/internal/system"
)

// Sim is the simulation driver. All methods run on the sim thread.
type Sim struct {
	world    *ecs.World
	comps    *component.Stores
	commands *event.Bus
	events   feedback.Emitter
	log      *zap.Logger

	shields *combat.ShieldRegulator
	power   *combat.PowerArbiter
	weapons *combat.WeaponSystem
	physics *physics.World

	runner   *coresys.Runner
	powerSys *system.PowerSystem
	impact   *system.ImpactSystem
	cleanup  *system.CleanupSystem

	cam     *camera.Controller
	look    camera.MouseLook
	presets []camera.Preset
	move    camera.MovementInput

	obstacles []data.ObstacleEntry
	player    ecs.EntityID
	followed  ecs.EntityID
	steps     uint64
	lastDt    float64
}

// New builds an empty world with every subsystem registered. events
// receives all gameplay feedback; nil discards it.
func New(events feedback.Emitter, camCfg camera.Config, log *zap.Logger) *Sim {
	if events == nil {
		events = feedback.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := ecs.NewWorld()
	comps := component.NewStores(w)
	s := &Sim{
		world:    w,
		comps:    comps,
		commands: event.NewBus(),
		events:   events,
		log:      log,
		shields:  combat.NewShieldRegulator(w, events, log.Named("shield")),
		power:    combat.NewPowerArbiter(w, events, log.Named("power")),
		weapons:  combat.NewWeaponSystem(w, comps, events, log.Named("weapon")),
		physics:  physics.NewWorld(w, comps, log.Named("physics")),
		runner:   coresys.NewRunner(),
		presets:  camera.DefaultPresets(),
	}
	s.cam = camera.NewController(nil, camCfg, log.Named("camera"))
	s.cam.SetRaycaster(s.physics)

	s.powerSys = system.NewPowerSystem(s.power, s.shields, s.weapons, comps)
	s.impact = system.NewImpactSystem(w, comps, s.shields, events, log.Named("impact"))
	s.cleanup = system.NewCleanupSystem(w, log)

	// 固定順序：輸入、武器、護盾、電力、物理、收尾
	s.runner.Register(system.NewInputSystem(comps, s.commands, s.power))
	s.runner.Register(system.NewWeaponSystem(s.weapons))
	s.runner.Register(system.NewShieldSystem(s.shields))
	s.runner.Register(s.powerSys)
	s.runner.Register(system.NewPhysicsSystem(s.physics))
	s.runner.Register(s.impact)
	s.runner.Register(s.cleanup)

	s.subscribe()
	return s
}

// AddScripts runs t once per step after physics.
func (s *Sim) AddScripts(t system.Ticker) {
	s.runner.Register(system.NewScriptSystem(t))
}

func (s *Sim) subscribe() {
	event.Subscribe(s.commands, func(c event.FireWeapon) {
		s.weapons.RequestFire(c.Entity, c.Slot)
	})
	event.Subscribe(s.commands, func(c event.ToggleTargetLock) {
		tl, ok := s.comps.TargetLocks.Get(c.Entity)
		if !ok {
			tl = &component.TargetLock{}
			if err := s.comps.TargetLocks.Add(c.Entity, tl); err != nil {
				return
			}
		}
		tl.Locked = !tl.Locked
		if tl.Locked {
			s.look.Reset()
		}
		s.log.Debug("target lock toggled", zap.Stringer("entity", c.Entity), zap.Bool("locked", tl.Locked))
	})
	event.Subscribe(s.commands, func(c event.ApplyCameraPreset) {
		if c.Index < 0 || c.Index >= len(s.presets) {
			return
		}
		s.cam.ApplyPreset(s.presets[c.Index])
		if tl, ok := s.comps.TargetLocks.Get(s.player); ok {
			tl.Locked = false
		}
		s.look.Reset()
	})
	event.Subscribe(s.commands, func(c event.DivertPower) {
		sub, err := combat.ParseSubsystem(c.Subsystem)
		if err != nil {
			s.log.Warn("divert power", zap.Error(err))
			return
		}
		s.power.DivertPower(c.Entity, sub, c.Amount)
	})
}

// Spawn creates a ship from l at pos. The player ship also gets controls, a
// target lock and the player tag.
func (s *Sim) Spawn(l *data.Loadout, pos component.Position, player bool) (ecs.EntityID, error) {
	e := s.world.CreateEntity()
	if err := s.outfit(e, l, pos, player); err != nil {
		_ = s.world.DestroyEntity(e)
		s.powerSys.Untrack(e)
		return ecs.NoEntity, fmt.Errorf("spawn %s: %w", l.Name, err)
	}
	if player {
		s.player = e
		s.log.Info("player spawned", zap.Stringer("entity", e), zap.String("loadout", l.Name))
	}
	return e, nil
}

func (s *Sim) outfit(e ecs.EntityID, l *data.Loadout, pos component.Position, player bool) error {
	c := s.comps
	// 新實體一定存活，以下 Add 不會失敗
	_ = c.Positions.Add(e, &pos)
	_ = c.Velocities.Add(e, &component.Velocity{})
	_ = c.Bodies.Add(e, &component.RigidBody{
		Mass:          l.Body.Mass,
		UseGravity:    l.Body.UseGravity,
		LinearDamping: l.Body.LinearDamping,
	})
	_ = c.Factions.Add(e, &component.Faction{ID: l.Faction})
	if l.Hull > 0 {
		_ = c.Hulls.Add(e, &component.Hull{Integrity: l.Hull, Max: l.Hull})
	}
	if player || l.CameraPriority > 0 {
		_ = c.CameraTargets.Add(e, &component.CameraTarget{Priority: l.CameraPriority, Active: true})
	}
	if player {
		_ = c.Players.Add(e, &component.PlayerTag{Name: l.Name})
		_ = c.Controls.Add(e, &component.ControlInput{})
		_ = c.TargetLocks.Add(e, &component.TargetLock{})
	}

	if sh := l.Shield; sh != nil {
		if err := s.shields.Initialize(e, sh.CapacityMJ, sh.RechargeRate, sh.RechargeDelay, sh.Absorption, sh.Component); err != nil {
			return err
		}
	}
	slots := l.SlotNames()
	for _, name := range slots {
		if err := s.weapons.ConfigureSlot(e, name, l.Weapons[name]); err != nil {
			return err
		}
	}
	if p := l.Power; p != nil {
		if err := s.power.Initialize(e, p.TotalMW, p.ShieldReqMW, p.WeaponReqMW, p.ThrusterReqMW); err != nil {
			return err
		}
		if a := p.Allocation; a != nil {
			s.power.SetAllocation(e, a.Shields, a.Weapons, a.Thrusters)
		}
		if p.OverloadThreshold > 0 {
			s.power.SetOverloadProtection(e, true, p.OverloadThreshold)
		}
		s.powerSys.Track(e, system.Requirements{
			Shields:   p.ShieldReqMW,
			Weapons:   p.WeaponReqMW,
			Thrusters: p.ThrusterReqMW,
		}, slots...)
	}
	return nil
}

// LoadObstacles adds every entry of t to the physics world.
func (s *Sim) LoadObstacles(t *data.ObstacleTable) {
	for _, o := range t.All() {
		if o.IsCylinder() {
			s.physics.AddCylinder(o.X, o.Z, o.Radius, o.MinY, o.MaxY)
		} else {
			s.physics.AddBox(o.X-o.Width/2, o.MinY, o.Z-o.Depth/2, o.X+o.Width/2, o.MaxY, o.Z+o.Depth/2)
		}
		s.obstacles = append(s.obstacles, o)
	}
	s.log.Info("obstacles loaded", zap.Int("count", len(t.All())))
}

// FixedUpdate advances the simulation by one step of dt seconds.
func (s *Sim) FixedUpdate(dt float64) {
	s.runner.Tick(dt)
	s.steps++
	s.lastDt = dt
}

// UpdateCamera moves the follow camera by one render frame. The target is
// the highest-priority active CameraTarget that has a position.
func (s *Sim) UpdateCamera(dt float64) {
	s.followed = s.cameraTarget()
	in := camera.Input{}
	if pos, ok := s.comps.Positions.Get(s.followed); ok {
		in.Player = mgl64.Vec3{pos.X, pos.Y, pos.Z}
		if tl, ok := s.comps.TargetLocks.Get(s.followed); ok {
			in.Locked = tl.Locked
			in.Player[1] += tl.OffsetY
		}
	}
	s.look.Sample(s.move.MouseDX, s.move.MouseDY, in.Locked)
	in.YawOffset, in.PitchOffset = s.look.Yaw, s.look.Pitch

	s.cam.Update(in, s.move, dt)
	s.cam.Camera().UpdateZoom(dt)
	s.move.MouseDX, s.move.MouseDY = 0, 0
}

func (s *Sim) cameraTarget() ecs.EntityID {
	best, bestPri := ecs.NoEntity, 0
	ecs.Each2(s.comps.CameraTargets, s.comps.Positions, func(id ecs.EntityID, t *component.CameraTarget, _ *component.Position) {
		if !t.Active {
			return
		}
		if best == ecs.NoEntity || t.Priority > bestPri {
			best, bestPri = id, t.Priority
		}
	})
	return best
}

// Player is the authoritative player entity, or NoEntity before Spawn.
func (s *Sim) Player() ecs.EntityID { return s.player }

// Followed is the entity the camera targeted at the last UpdateCamera.
func (s *Sim) Followed() ecs.EntityID { return s.followed }

func (s *Sim) World() *ecs.World                 { return s.world }
func (s *Sim) Components() *component.Stores     { return s.comps }
func (s *Sim) Commands() *event.Bus              { return s.commands }
func (s *Sim) Camera() *camera.Controller        { return s.cam }
func (s *Sim) Shields() *combat.ShieldRegulator  { return s.shields }
func (s *Sim) Power() *combat.PowerArbiter       { return s.power }
func (s *Sim) Weapons() *combat.WeaponSystem     { return s.weapons }
func (s *Sim) Physics() *physics.World           { return s.physics }
func (s *Sim) Impacts() *system.ImpactSystem     { return s.impact }
func (s *Sim) Steps() uint64                     { return s.steps }
func (s *Sim) Presets() []camera.Preset          { return s.presets }
func (s *Sim) SetPresets(p []camera.Preset)      { s.presets = p }
func (s *Sim) Destroyed() uint64                 { return s.cleanup.Destroyed() }
func (s *Sim) Obstacles() []data.ObstacleEntry   { return s.obstacles }
func (s *Sim) SetCameraConfig(cfg camera.Config) { s.cam.SetConfig(cfg) }

package sim

import (
	"github.com/novaengine/nova/internal/camera"
	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/event"
	"github.com/novaengine/nova/internal/feedback"
	"github.com/novaengine/nova/internal/input"
	"github.com/novaengine/nova/internal/render"
)

// StatusSlot is the weapon slot shown on the status line.
const StatusSlot = "primary"

// ApplyInput routes one polled input frame. Gameplay actions become commands
// that release at the next step's input phase; camera zoom applies now. The
// returned events are host concerns (pacing, pause, quit).
func (s *Sim) ApplyInput(f input.Frame) []input.Event {
	if in, ok := s.comps.Controls.Get(s.player); ok {
		in.Forward, in.Backward = f.Ship.Forward, f.Ship.Back
		in.Left, in.Right = f.Ship.Left, f.Ship.Right
		in.Up, in.Down = f.Ship.Up, f.Ship.Down
		// 船頭跟著攝影機
		in.Yaw = s.cam.Camera().Yaw
	}

	s.move.Forward, s.move.Back = f.Camera.Forward, f.Camera.Back
	s.move.Left, s.move.Right = f.Camera.Left, f.Camera.Right
	s.move.Up, s.move.Down = f.Camera.Up, f.Camera.Down
	s.move.Sprint, s.move.Slow = f.Sprint, f.Slow
	s.move.MouseDX += f.MouseDX
	s.move.MouseDY += f.MouseDY

	var host []input.Event
	for _, ev := range f.Events {
		switch ev.Action {
		case input.ActionFire:
			slot := ev.Slot
			if slot == "" {
				slot = StatusSlot
			}
			event.Emit(s.commands, event.FireWeapon{Entity: s.player, Slot: slot})
		case input.ActionToggleLock:
			event.Emit(s.commands, event.ToggleTargetLock{Entity: s.player})
		case input.ActionPreset:
			event.Emit(s.commands, event.ApplyCameraPreset{Index: ev.Preset})
		case input.ActionZoom:
			s.cam.Camera().AdjustZoom(ev.Delta)
		default:
			host = append(host, ev)
		}
	}
	return host
}

// Movement is the free-camera input pending for the next UpdateCamera.
func (s *Sim) Movement() camera.MovementInput { return s.move }

// Scene snapshots the world for the renderer. Positions are extrapolated
// along velocity by interp of the last step.
func (s *Sim) Scene(interp float64, alerts []feedback.Alert) *render.Scene {
	sc := &render.Scene{
		Camera:        s.cam.Camera(),
		Interpolation: interp,
		Alerts:        alerts,
	}
	lead := interp * s.lastDt
	s.comps.Positions.Each(func(id ecs.EntityID, p *component.Position) {
		e := render.Entity{ID: id, X: p.X, Y: p.Y, Z: p.Z, Shield: -1}
		if v, ok := s.comps.Velocities.Get(id); ok {
			e.X += v.VX * lead
			e.Y += v.VY * lead
			e.Z += v.VZ * lead
		}
		switch {
		case s.comps.Projectiles.Has(id):
			e.Kind = render.KindProjectile
		case s.comps.Factions.Has(id):
			e.Kind = render.KindShip
			f, _ := s.comps.Factions.Get(id)
			e.Faction = f.ID
			e.Player = id == s.player
			if st, ok := s.shields.State(id); ok {
				e.Shield = st.Percentage() * 100
			}
		default:
			return
		}
		sc.Entities = append(sc.Entities, e)
	})
	for _, o := range s.obstacles {
		sc.Entities = append(sc.Entities, render.Entity{
			Kind: render.KindObstacle, X: o.X, Y: (o.MinY + o.MaxY) / 2, Z: o.Z, Shield: -1,
		})
	}
	sc.Status = s.status()
	return sc
}

func (s *Sim) status() render.Status {
	st := render.Status{Shield: -1, Ammo: -1, Projectiles: s.weapons.Projectiles()}
	if tl, ok := s.comps.TargetLocks.Get(s.player); ok {
		st.Locked = tl.Locked
	}
	if sh, ok := s.shields.State(s.player); ok {
		st.Shield = sh.Percentage() * 100
	}
	if p, ok := s.power.State(s.player); ok {
		st.ShieldMW, st.WeaponMW, st.ThrusterMW = p.ShieldPowerMW, p.WeaponPowerMW, p.ThrusterPowerMW
		st.Overloaded = p.Overloaded
	}
	st.Ammo = s.weapons.AmmoCount(s.player, StatusSlot)
	return st
}

// Package render defines what a renderer receives each frame and ships a
// terminal implementation.
package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/novaengine/nova/internal/camera"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/feedback"
)

const (
	NearPlane = 0.1
	FarPlane  = 500.0
)

// Kind picks the glyph and colour of a renderable.
type Kind int

const (
	KindShip Kind = iota
	KindProjectile
	KindObstacle
)

// Entity is one thing to draw, already in world space.
type Entity struct {
	ID      ecs.EntityID
	Kind    Kind
	X, Y, Z float64
	Player  bool
	Faction int
	Shield  float64 // percent, -1 without a shield
}

// Status is the HUD status line.
type Status struct {
	Frame       uint64
	FPS         float64
	TargetFPS   float64
	VSync       bool
	Paused      bool
	Locked      bool
	Shield      float64 // player shield percent, -1 if none
	ShieldMW    float64
	WeaponMW    float64
	ThrusterMW  float64
	Overloaded  bool
	Ammo        int // primary slot, -1 unlimited
	Projectiles int
}

// Scene is the per-frame render input. Camera is owned by the sim thread and
// only valid for the duration of Render.
type Scene struct {
	Camera        *camera.Camera
	Interpolation float64
	Entities      []Entity
	Alerts        []feedback.Alert
	Status        Status
}

// Renderer is the render collaborator.
type Renderer interface {
	Render(s *Scene) error
}

// Project maps a world point to normalised device coordinates through
// proj·view. ok is false behind the eye or outside the clip volume.
func Project(view, proj mgl64.Mat4, p mgl64.Vec3) (ndc mgl64.Vec3, ok bool) {
	clip := proj.Mul4(view).Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= 1e-9 {
		return mgl64.Vec3{}, false
	}
	ndc = clip.Vec3().Mul(1 / w)
	for i := 0; i < 3; i++ {
		if ndc[i] < -1 || ndc[i] > 1 {
			return ndc, false
		}
	}
	return ndc, true
}

// Discard counts frames and draws nothing. Headless runs use it.
type Discard struct {
	Frames   uint64
	Visible  int // entities inside the frustum last frame
	Aspect   float64
	LastView mgl64.Mat4
}

func (d *Discard) Render(s *Scene) error {
	d.Frames++
	if s.Camera == nil {
		return nil
	}
	aspect := d.Aspect
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	view := s.Camera.ViewMatrix()
	proj := s.Camera.ProjectionMatrix(aspect, NearPlane, FarPlane)
	d.LastView = view
	d.Visible = 0
	for _, e := range s.Entities {
		if _, ok := Project(view, proj, mgl64.Vec3{e.X, e.Y, e.Z}); ok {
			d.Visible++
		}
	}
	return nil
}

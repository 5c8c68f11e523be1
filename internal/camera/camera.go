// Package camera holds the camera pose, its view/projection matrices and the
// follow controller that drives it between free flight and target lock.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultFov = 60.0
	MinFov     = 30.0
	MaxFov     = 90.0

	zoomSpeed = 6.0
)

// ClampFov maps non-finite or non-positive values to DefaultFov and clamps
// the rest to [MinFov, MaxFov].
func ClampFov(fov float64) float64 {
	if math.IsNaN(fov) || math.IsInf(fov, 0) || fov <= 0 {
		return DefaultFov
	}
	return math.Max(MinFov, math.Min(MaxFov, fov))
}

// Camera is a position plus pitch/yaw in radians. Yaw 0 faces +Z; world +Y is up.
type Camera struct {
	X, Y, Z    float64
	Pitch, Yaw float64

	zoom       float64
	targetZoom float64
}

func New() *Camera {
	return &Camera{zoom: DefaultFov, targetZoom: DefaultFov}
}

func (c *Camera) Position() mgl64.Vec3 { return mgl64.Vec3{c.X, c.Y, c.Z} }

func (c *Camera) SetPosition(x, y, z float64) {
	c.X, c.Y, c.Z = x, y, z
}

func (c *Camera) SetOrientation(pitch, yaw float64) {
	c.Pitch, c.Yaw = pitch, yaw
}

// Zoom is the vertical field of view in degrees.
func (c *Camera) Zoom() float64       { return c.zoom }
func (c *Camera) TargetZoom() float64 { return c.targetZoom }

// SetZoom jumps to fov immediately.
func (c *Camera) SetZoom(fov float64) {
	c.zoom = ClampFov(fov)
	c.targetZoom = c.zoom
}

// SetTargetZoom lets UpdateZoom ease toward fov.
func (c *Camera) SetTargetZoom(fov float64) {
	c.targetZoom = ClampFov(fov)
}

func (c *Camera) AdjustZoom(delta float64) {
	c.SetTargetZoom(c.targetZoom + delta)
}

func (c *Camera) UpdateZoom(dt float64) {
	if !(dt > 0) {
		return
	}
	step := zoomSpeed * dt
	if step > 50 {
		c.zoom = c.targetZoom
		return
	}
	alpha := 1 - math.Exp(-step)
	c.zoom = ClampFov(c.zoom + (c.targetZoom-c.zoom)*alpha)
}

// Basis returns the forward, right and up unit vectors. Without pitch the
// forward vector stays on the XZ plane.
func (c *Camera) Basis(includePitch bool) (forward, right, up mgl64.Vec3) {
	return basis(c.Pitch, c.Yaw, includePitch)
}

func basis(pitch, yaw float64, includePitch bool) (forward, right, up mgl64.Vec3) {
	hs := 1.0
	fy := 0.0
	if includePitch {
		hs = math.Cos(pitch)
		fy = math.Sin(pitch)
	}
	forward = normalizeOr(mgl64.Vec3{math.Sin(yaw) * hs, fy, math.Cos(yaw) * hs}, mgl64.Vec3{0, 0, -1})
	right = normalizeOr(mgl64.Vec3{forward.Z(), 0, -forward.X()}, mgl64.Vec3{1, 0, 0})
	up = normalizeOr(forward.Cross(right), mgl64.Vec3{0, 1, 0})
	return forward, right, up
}

func normalizeOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if !(l > 1e-9) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// ViewMatrix is the column-major world-to-view transform: right, up and
// -forward are its rotation rows, the eye translation its last column.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	f, r, u := c.Basis(true)
	p := c.Position()
	return mgl64.Mat4FromRows(
		r.Vec4(-r.Dot(p)),
		u.Vec4(-u.Dot(p)),
		f.Mul(-1).Vec4(f.Dot(p)),
		mgl64.Vec4{0, 0, 0, 1},
	)
}

// ProjectionMatrix is an OpenGL-style perspective with clip z in [-1, 1].
// Bad aspect or depth values fall back to usable defaults.
func (c *Camera) ProjectionMatrix(aspect, near, far float64) mgl64.Mat4 {
	if !finite(aspect) || aspect <= 0 {
		aspect = 1
	}
	if !finite(near) {
		near = 0.1
	}
	near = math.Max(1e-3, near)
	if !finite(far) {
		far = near + 1000
	}
	far = math.Max(near+1e-3, far)
	return mgl64.Perspective(mgl64.DegToRad(ClampFov(c.zoom)), aspect, near, far)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

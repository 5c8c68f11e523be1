package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// freeRig places the camera well above ground and far from the player so
// only free look and free movement move it.
func freeRig(cfg Config) (*Controller, Input) {
	cam := New()
	cam.SetPosition(0, 10, 0)
	return NewController(cam, cfg, nil), Input{Player: mgl64.Vec3{100, 0, 100}}
}

func TestController_PresetSurvivesNextUpdate(t *testing.T) {
	c := NewController(nil, DefaultConfig(), nil)
	for i := 0; i < 30; i++ {
		c.Update(Input{Locked: true, Player: mgl64.Vec3{5, 0, 5}}, MovementInput{}, tick)
	}
	p := DefaultPresets()[2]
	c.ApplyPreset(p)
	assert.Equal(t, State{}, c.State())
	require.True(t, c.Suppressed())

	c.Update(Input{Locked: true, Player: mgl64.Vec3{5, 0, 5}}, MovementInput{MouseDX: 50}, tick)
	cam := c.Camera()
	assert.Equal(t, mgl64.Vec3{p.X, p.Y, p.Z}, cam.Position())
	assert.Equal(t, p.Pitch, cam.Pitch)
	assert.Equal(t, p.Yaw, cam.Yaw)
	assert.Equal(t, p.Fov, cam.Zoom())
	assert.Equal(t, p.Fov, cam.TargetZoom())
	assert.False(t, c.Suppressed())
}

func TestController_DefaultPresets(t *testing.T) {
	ps := DefaultPresets()
	require.Len(t, ps, 3)
	assert.Equal(t, Preset{Name: "orbit", X: -8, Y: 0, Z: 6, Pitch: -0.1, Yaw: 0, Fov: 60}, ps[0])
	assert.Equal(t, 75.0, ps[1].Fov)
	ps[0].Fov = 1
	assert.Equal(t, 60.0, DefaultPresets()[0].Fov, "callers get a copy")
}

func TestController_EnteringLockSuppressesFollowingUpdate(t *testing.T) {
	cam := New()
	cam.SetPosition(-12, 3, 0)
	c := NewController(cam, DefaultConfig(), nil)
	in := Input{Locked: true}

	c.Update(in, MovementInput{}, tick)
	assert.True(t, c.State().WasTargetLocked)
	assert.True(t, c.Suppressed())

	held := cam.Position()
	c.Update(in, MovementInput{}, tick)
	assert.Equal(t, held, cam.Position())

	c.Update(in, MovementInput{}, tick)
	assert.NotEqual(t, held, cam.Position())
	assert.False(t, c.Suppressed(), "only the entering tick suppresses")
}

func TestController_FreeLook(t *testing.T) {
	c, in := freeRig(DefaultConfig())
	cam := c.Camera()

	c.Update(in, MovementInput{MouseDX: 100}, tick)
	assert.InDelta(t, 0.25, cam.Yaw, 1e-12)

	c.Update(in, MovementInput{MouseDY: 100}, tick)
	assert.InDelta(t, -0.2, cam.Pitch, 1e-12)

	c.Update(in, MovementInput{MouseDX: 0.1, MouseDY: -0.15}, tick)
	assert.InDelta(t, 0.25, cam.Yaw, 1e-12, "inside the pixel deadzone")
	assert.InDelta(t, -0.2, cam.Pitch, 1e-12)

	c.Update(in, MovementInput{MouseDY: 10000}, tick)
	assert.InDelta(t, -freeLookMaxPitch, cam.Pitch, 1e-12)

	cfg := DefaultConfig()
	cfg.InvertFreeLookYaw = true
	cfg.InvertFreeLookPitch = true
	inv, in := freeRig(cfg)
	inv.Update(in, MovementInput{MouseDX: 100, MouseDY: 100}, tick)
	assert.InDelta(t, -0.25, inv.Camera().Yaw, 1e-12)
	assert.InDelta(t, 0.2, inv.Camera().Pitch, 1e-12)
}

func TestController_FreeMove(t *testing.T) {
	c, in := freeRig(DefaultConfig())
	alpha := ExpAlpha(10, tick)

	c.Update(in, MovementInput{Forward: true}, tick)
	assert.InDelta(t, 8*alpha, c.State().FreeVel.Z(), 1e-12)
	assert.InDelta(t, 8*alpha*tick, c.Camera().Z, 1e-12)

	for i := 0; i < 300; i++ {
		c.Update(in, MovementInput{Forward: true}, tick)
	}
	assert.InDelta(t, 8, c.State().FreeVel.Z(), 1e-6)
	assert.Zero(t, c.State().FreeVel.Y())

	for i := 0; i < 300; i++ {
		c.Update(in, MovementInput{}, tick)
	}
	assert.Equal(t, mgl64.Vec3{}, c.State().FreeVel, "damped and snapped to zero")
}

func TestController_FreeMoveSpeeds(t *testing.T) {
	cases := []struct {
		name string
		mv   MovementInput
		want mgl64.Vec3
	}{
		{"diagonal is not faster", MovementInput{Forward: true, Right: true}, mgl64.Vec3{8 / math.Sqrt2, 0, 8 / math.Sqrt2}},
		{"sprint", MovementInput{Back: true, Sprint: true}, mgl64.Vec3{0, 0, -8 * 1.8}},
		{"slow", MovementInput{Left: true, Slow: true}, mgl64.Vec3{-4, 0, 0}},
		{"vertical", MovementInput{Up: true}, mgl64.Vec3{0, 6, 0}},
		{"move speed overrides both", MovementInput{Down: true, Forward: true, MoveSpeed: 3}, mgl64.Vec3{0, -3, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, in := freeRig(DefaultConfig())
			for i := 0; i < 300; i++ {
				c.Update(in, tc.mv, tick)
			}
			v := c.State().FreeVel
			for i := range tc.want {
				assert.InDelta(t, tc.want[i], v[i], 1e-6)
			}
		})
	}
}

func TestController_FreeModeResumesAfterUnlock(t *testing.T) {
	cam := New()
	cam.SetPosition(-12, 3, 0)
	c := NewController(cam, DefaultConfig(), nil)
	for i := 0; i < 60; i++ {
		c.Update(Input{Locked: true}, MovementInput{}, tick)
	}
	for i := 0; i < 400; i++ {
		c.Update(Input{}, MovementInput{}, tick)
	}
	require.Zero(t, c.State().TargetLockTransition)

	yaw := cam.Yaw
	c.Update(Input{}, MovementInput{MouseDX: 40}, tick)
	assert.InDelta(t, WrapAngle(yaw+0.1), cam.Yaw, 1e-9)
}

func TestController_ConfigAndReset(t *testing.T) {
	c := NewController(nil, Config{SprintMultiplier: 0}, nil)
	assert.Equal(t, 1.0, c.Config().SprintMultiplier)

	cfg := DefaultConfig()
	cfg.PitchMin, cfg.PitchMax = 1, -1
	c.SetConfig(cfg)
	assert.Equal(t, -1.0, c.Config().PitchMin)

	c.Update(Input{Locked: true}, MovementInput{}, tick)
	require.True(t, c.State().HasLastDesired)
	c.Reset()
	assert.Equal(t, State{}, c.State())
}

func TestController_LogsTeleportOnce(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cam := New()
	cam.SetPosition(-12, 3, 0)
	c := NewController(cam, DefaultConfig(), zap.New(core))
	for i := 0; i < 120; i++ {
		c.Update(Input{Locked: true}, MovementInput{}, tick)
	}
	c.Update(Input{Locked: true, Player: mgl64.Vec3{0, 0, 200}}, MovementInput{}, tick)
	assert.True(t, c.LastStep().Teleported)
	c.Update(Input{Locked: true, Player: mgl64.Vec3{0, 0, 400}}, MovementInput{}, tick)

	assert.Equal(t, 1, logs.FilterMessage("camera target teleported").Len(), "throttled")
}

func TestMouseLook(t *testing.T) {
	var m MouseLook
	m.Sample(10, 0, true)
	assert.InDelta(t, 10*0.004*1.1, m.Yaw, 1e-12)
	assert.Zero(t, m.Pitch)

	m.Sample(0.5, -0.5, true)
	assert.Zero(t, m.Yaw, "small motion clears the offsets")

	m.Sample(1000, -1000, true)
	assert.Equal(t, 0.5, m.Yaw)
	assert.Equal(t, 0.5, m.Pitch)

	m.Sample(0, 0, false)
	assert.InDelta(t, 0.48, m.Yaw, 1e-12)

	m.Reset()
	assert.Zero(t, m.Yaw)
}

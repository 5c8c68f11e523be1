package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/physics"
)

const tick = 1.0 / 60

func TestConfigValidate(t *testing.T) {
	def := DefaultConfig()
	v := def
	v.Validate()
	assert.Equal(t, def, v, "defaults are already valid")

	c := Config{
		OrbitDistance:         -1,
		MaxDeltaTimeClamp:     5,
		TransitionSpeed:       -3,
		PitchMin:              2,
		PitchMax:              -3,
		NearVerticalDeg:       120,
		SprintMultiplier:      0.2,
		FreeVelDeadzone:       math.NaN(),
		DynamicShoulderFactor: 4,
		TeleportSnapFrames:    -2,
		TeleportBlendSeconds:  3,
		TeleportBlendMinAlpha: -1,
	}
	c.Validate()
	assert.Zero(t, c.OrbitDistance)
	assert.Equal(t, 0.5, c.MaxDeltaTimeClamp)
	assert.Zero(t, c.TransitionSpeed)
	assert.InDelta(t, -0.98*math.Pi/2, c.PitchMin, 1e-12)
	assert.InDelta(t, 0.98*math.Pi/2, c.PitchMax, 1e-12)
	assert.Equal(t, 89.9, c.NearVerticalDeg)
	assert.Equal(t, 1.0, c.SprintMultiplier)
	assert.Equal(t, 1e-4, c.FreeVelDeadzone)
	assert.Equal(t, 1.0, c.DynamicShoulderFactor)
	assert.Zero(t, c.TeleportSnapFrames)
	assert.Equal(t, 1.0, c.TeleportBlendSeconds)
	assert.Zero(t, c.TeleportBlendMinAlpha)

	again := c
	again.Validate()
	assert.Equal(t, c, again)
}

func TestSmoothingPrimitives(t *testing.T) {
	assert.Zero(t, ExpAlpha(0, 1))
	assert.Zero(t, ExpAlpha(10, -1))
	assert.Zero(t, ExpAlpha(-5, 1))
	assert.InDelta(t, 1-math.Exp(-1), ExpAlpha(2, 0.5), 1e-12)

	assert.Zero(t, SmoothStep(0))
	assert.Equal(t, 1.0, SmoothStep(1))
	assert.Equal(t, 0.5, SmoothStep(0.5))

	assert.InDelta(t, math.Pi/2, WrapAngle(math.Pi/2+4*math.Pi), 1e-9)
	assert.InDelta(t, -math.Pi/2, WrapAngle(3*math.Pi/2), 1e-9)
}

// lockedRig converges a locked camera on a player at the origin, starting
// from (-12, 3, 0).
func lockedRig(t *testing.T, cfg Config, ticks int) (*Camera, *State) {
	t.Helper()
	cam := New()
	cam.SetPosition(-12, 3, 0)
	st := &State{}
	for i := 0; i < ticks; i++ {
		UpdateTargetLock(cam, st, &cfg, Input{Locked: true}, tick, nil)
	}
	return cam, st
}

func TestConfigValidate_NonFiniteFallsBackToDefaults(t *testing.T) {
	def := DefaultConfig()
	c := def
	c.OrbitDistance = math.NaN()
	c.OrbitHeight = math.Inf(1)
	c.MinDistanceFromPlayer = math.NaN()
	c.MaxDeltaTimeClamp = math.Inf(-1)
	c.PitchMax = math.NaN()
	c.TeleportBlendMinAlpha = math.Inf(1)
	c.Validate()
	assert.Equal(t, def, c)
}

func TestUpdateTargetLock_LockedSteadyState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OrbitDistance = 12
	cfg.OrbitHeight = 3
	cam, st := lockedRig(t, cfg, 180)

	planar := math.Hypot(cam.X, cam.Z)
	assert.InDelta(t, 12, planar, 0.6)
	assert.GreaterOrEqual(t, cam.Y, 3-0.6)

	yawToPlayer := math.Atan2(-cam.X, -cam.Z)
	assert.Less(t, math.Abs(WrapAngle(yawToPlayer-cam.Yaw)), 0.05)

	assert.InDelta(t, 1, st.TargetLockTransition, 1e-3)
	assert.InDelta(t, math.Pi/2, st.LockedOrbitOffset, 1e-9)
	assert.True(t, st.WasTargetLocked)
}

func TestUpdateTargetLock_TeleportRecovery(t *testing.T) {
	cfg := DefaultConfig()
	cam, st := lockedRig(t, cfg, 180)
	normal := ExpAlpha(cfg.PosResponsiveness, tick)

	step := UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{0, 0, 100}, Locked: true}, tick, nil)
	require.True(t, step.Teleported)
	assert.Greater(t, step.Jump, cfg.TeleportDistanceThreshold)
	assert.Equal(t, 1.0, step.PosAlpha)
	assert.Equal(t, 1.0, step.RotAlpha)
	vecNear(t, step.Desired, cam.Position())
	assert.Equal(t, cfg.TeleportSnapFrames-1, st.TeleportFramesRemaining)
	assert.Equal(t, cfg.TeleportBlendSeconds, st.TeleportBlendTimer)

	// the extra snap frame
	step = UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{0, 0, 100}, Locked: true}, tick, nil)
	assert.False(t, step.Teleported)
	assert.Equal(t, 1.0, step.PosAlpha)
	assert.Zero(t, st.TeleportFramesRemaining)

	// boosted blend, then back to normal
	step = UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{0, 0, 100}, Locked: true}, tick, nil)
	assert.Equal(t, cfg.TeleportBlendMinAlpha, step.PosAlpha)
	for i := 0; i < 30; i++ {
		step = UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{0, 0, 100}, Locked: true}, tick, nil)
	}
	assert.Zero(t, st.TeleportBlendTimer)
	assert.InDelta(t, normal, step.PosAlpha, 1e-12)
}

func TestUpdateTargetLock_SmallJumpIsNotTeleport(t *testing.T) {
	cfg := DefaultConfig()
	cam, st := lockedRig(t, cfg, 180)
	step := UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{0, 0, 5}, Locked: true}, tick, nil)
	assert.False(t, step.Teleported)
	assert.Zero(t, st.TeleportFramesRemaining)

	cfg.EnableTeleportHandling = false
	step = UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{0, 0, 500}, Locked: true}, tick, nil)
	assert.False(t, step.Teleported)
	assert.Less(t, step.PosAlpha, 1.0)
}

func TestUpdateTargetLock_SkipsWhenIdleAndNotAlwaysTicking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlwaysTickFreeMode = false
	cam := New()
	cam.SetPosition(1, 0, 1)
	st := &State{}
	step := UpdateTargetLock(cam, st, &cfg, Input{}, tick, nil)
	assert.True(t, step.Skipped)
	vecNear(t, mgl64.Vec3{1, 0, 1}, cam.Position())
	assert.False(t, st.HasLastDesired)
}

func TestUpdateTargetLock_UnlockedKeepsPoseButClampsGround(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SoftGroundClamp = false
	cam := New()
	cam.SetPosition(5, 0, 5)
	cam.SetOrientation(0.3, 1)
	st := &State{}
	UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{50, 0, 50}}, tick, nil)
	vecNear(t, mgl64.Vec3{5, cfg.GroundLevel + cfg.TerrainBuffer, 5}, cam.Position())
	assert.InDelta(t, 0.3, cam.Pitch, 1e-12)
	assert.InDelta(t, 1, cam.Yaw, 1e-12)
	assert.InDelta(t, 1, st.OrbitYaw, 1e-12)
}

func TestUpdateTargetLock_MinDistance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinDistanceFromPlayer = 5
	cam := New()
	cam.SetPosition(0, 10, 1)
	st := &State{}
	UpdateTargetLock(cam, st, &cfg, Input{Player: mgl64.Vec3{0, 10, 0}}, tick, nil)
	vecNear(t, mgl64.Vec3{0, 10, 5}, cam.Position())
}

func TestUpdateTargetLock_LockYawInput(t *testing.T) {
	cfg := DefaultConfig()
	cam, st := lockedRig(t, cfg, 10)
	before := st.LockedOrbitOffset

	UpdateTargetLock(cam, st, &cfg, Input{Locked: true, YawOffset: 0.0005}, tick, nil)
	assert.Equal(t, before, st.LockedOrbitOffset, "below threshold")

	UpdateTargetLock(cam, st, &cfg, Input{Locked: true, YawOffset: 3}, tick, nil)
	assert.InDelta(t, before+0.1, st.LockedOrbitOffset, 1e-12, "clamped step")

	cfg.InvertLockYaw = true
	UpdateTargetLock(cam, st, &cfg, Input{Locked: true, YawOffset: 0.05}, tick, nil)
	assert.InDelta(t, before+0.05, st.LockedOrbitOffset, 1e-12)
}

func TestUpdateTargetLock_Invariants(t *testing.T) {
	cfg := DefaultConfig()
	cam := New()
	cam.SetPosition(3, 4, -7)
	st := &State{}
	for i := 0; i < 2000; i++ {
		locked := (i/150)%2 == 0
		in := Input{
			Player:      mgl64.Vec3{math.Sin(float64(i) * 0.01) * 30, float64(i%40) - 10, float64(i) * 0.05},
			Locked:      locked,
			YawOffset:   math.Sin(float64(i)) * 0.3,
			PitchOffset: math.Cos(float64(i)) * 2,
		}
		dt := tick
		if i%97 == 0 {
			dt = 3 // stall
		}
		UpdateTargetLock(cam, st, &cfg, in, dt, nil)

		require.GreaterOrEqual(t, cam.Pitch, cfg.PitchMin, "tick %d", i)
		require.LessOrEqual(t, cam.Pitch, cfg.PitchMax, "tick %d", i)
		require.GreaterOrEqual(t, cam.Yaw, -math.Pi, "tick %d", i)
		require.LessOrEqual(t, cam.Yaw, math.Pi, "tick %d", i)
		require.GreaterOrEqual(t, st.TargetLockTransition, 0.0)
		require.LessOrEqual(t, st.TargetLockTransition, 1.0)
		require.False(t, math.IsNaN(cam.X+cam.Y+cam.Z))
	}
}

func TestUpdateTargetLock_ObstacleAvoidance(t *testing.T) {
	w := ecs.NewWorld()
	phys := physics.NewWorld(w, component.NewStores(w), nil)
	phys.AddBox(-6, -10, -5, -5, 10, 5)

	cfg := DefaultConfig()
	cfg.EnableObstacleAvoidance = true

	cam := New()
	cam.SetPosition(-12, 3, 0)
	st := &State{}
	step := UpdateTargetLock(cam, st, &cfg, Input{Locked: true}, tick, phys)
	require.NotNil(t, step.Obstacle)
	assert.InDelta(t, -5+cfg.ObstacleMargin, cam.X, 1e-6)
	assert.GreaterOrEqual(t, cam.Y, cfg.GroundLevel+cfg.TerrainBuffer)

	// no collaborator, no avoidance
	cam.SetPosition(-12, 3, 0)
	st = &State{}
	step = UpdateTargetLock(cam, st, &cfg, Input{Locked: true}, tick, nil)
	assert.Nil(t, step.Obstacle)
	assert.Less(t, cam.X, -11.0)
}

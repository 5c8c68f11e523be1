package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
)

func newWorld(t *testing.T) (*ecs.World, *component.Stores, *World) {
	t.Helper()
	w := ecs.NewWorld()
	comps := component.NewStores(w)
	return w, comps, NewWorld(w, comps, nil)
}

func body(t *testing.T, w *ecs.World, comps *component.Stores, pos component.Position, vel component.Velocity, rb component.RigidBody) ecs.EntityID {
	t.Helper()
	e := w.CreateEntity()
	require.NoError(t, comps.Positions.Add(e, &pos))
	require.NoError(t, comps.Velocities.Add(e, &vel))
	require.NoError(t, comps.Bodies.Add(e, &rb))
	return e
}

func TestStep_Integrates(t *testing.T) {
	w, comps, p := newWorld(t)
	plain := body(t, w, comps, component.Position{}, component.Velocity{VX: 1, VZ: 2}, component.RigidBody{Mass: 1})
	falling := body(t, w, comps, component.Position{}, component.Velocity{}, component.RigidBody{Mass: 1, UseGravity: true})
	damped := body(t, w, comps, component.Position{}, component.Velocity{VX: 2}, component.RigidBody{Mass: 1, LinearDamping: 0.5})

	p.Step(0.5)
	pos, _ := comps.Positions.Get(plain)
	assert.InDelta(t, 0.5, pos.X, 1e-12)
	assert.InDelta(t, 1.0, pos.Z, 1e-12)

	p.Step(0)
	p.Step(-1)
	assert.InDelta(t, 0.5, pos.X, 1e-12)

	vel, _ := comps.Velocities.Get(falling)
	assert.InDelta(t, Gravity*0.5, vel.VY, 1e-12)

	dv, _ := comps.Velocities.Get(damped)
	assert.InDelta(t, 1.5, dv.VX, 1e-12)
}

func TestStep_IgnoresEntitiesWithoutBody(t *testing.T) {
	w, comps, p := newWorld(t)
	e := w.CreateEntity()
	require.NoError(t, comps.Positions.Add(e, &component.Position{}))
	require.NoError(t, comps.Velocities.Add(e, &component.Velocity{VX: 5}))
	p.Step(1)
	pos, _ := comps.Positions.Get(e)
	assert.Zero(t, pos.X)
}

func TestRaycast_Box(t *testing.T) {
	_, _, p := newWorld(t)
	p.AddBox(4, 0, -1, 6, 10, 1)
	require.Equal(t, 1, p.Obstacles())

	hit, ok := p.Raycast(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}, 10)
	require.True(t, ok)
	assert.InDelta(t, 4, hit.Point.X(), 1e-6)
	assert.InDelta(t, 1, hit.Point.Y(), 1e-6)
	assert.InDelta(t, -1, hit.Normal.X(), 1e-6)
	assert.InDelta(t, 4, hit.Distance, 1e-6)

	_, ok = p.Raycast(mgl64.Vec3{0, 20, 0}, mgl64.Vec3{1, 0, 0}, 10)
	assert.False(t, ok, "passes above the prism")

	_, ok = p.Raycast(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}, 3)
	assert.False(t, ok, "too short")

	_, ok = p.Raycast(mgl64.Vec3{5, -5, 0}, mgl64.Vec3{0, 1, 0}, 10)
	assert.False(t, ok, "vertical rays never hit")
}

func TestRaycast_Cylinder(t *testing.T) {
	_, _, p := newWorld(t)
	p.AddCylinder(0, 10, 2, -1, 1)
	hit, ok := p.Raycast(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, 20)
	require.True(t, ok)
	assert.InDelta(t, 8, hit.Point.Z(), 1e-6)
	assert.InDelta(t, -1, hit.Normal.Z(), 1e-6)

	p.ClearObstacles()
	_, ok = p.Raycast(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, 20)
	assert.False(t, ok)
}

func TestStep_ProjectileSweepMarksForDestruction(t *testing.T) {
	w, comps, p := newWorld(t)
	p.AddBox(4, 0, -1, 6, 10, 1)

	shot := body(t, w, comps, component.Position{Y: 1}, component.Velocity{VX: 100}, component.RigidBody{Mass: 1})
	require.NoError(t, comps.Projectiles.Add(shot, &component.Projectile{Slot: "primary"}))
	rock := body(t, w, comps, component.Position{Y: 1}, component.Velocity{VX: 100}, component.RigidBody{Mass: 1})

	var hits []ecs.EntityID
	p.OnProjectileHit = func(id ecs.EntityID, hit RayHit) {
		hits = append(hits, id)
		assert.InDelta(t, 4, hit.Point.X(), 1e-6)
	}
	p.Step(0.1)

	assert.Equal(t, []ecs.EntityID{shot}, hits)
	assert.Equal(t, uint64(1), p.ProjectileHits())
	assert.Equal(t, 1, w.Pending())

	n, err := w.FlushDestroyQueue()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, w.Alive(shot))
	assert.True(t, w.Alive(rock))
}

// Package physics is the minimal kinematic collaborator the core needs:
// Euler integration for rigid bodies and ray queries against static
// obstacles. Obstacles are vertical prisms, so the queries run in a 2D
// chipmunk space over the XZ plane and the Y range is checked afterwards.
package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/core/ecs"
)

const Gravity = -9.81

// RayHit is the first obstacle surface a ray reaches.
type RayHit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// obstacle is stored as the chipmunk shape's UserData.
type obstacle struct {
	id         int
	minY, maxY float64
}

// World integrates (Position, Velocity, RigidBody) entities and answers
// raycasts against static obstacles.
type World struct {
	world *ecs.World
	comps *component.Stores
	space *cp.Space
	log   *zap.Logger

	shapes []*cp.Shape
	nextID int

	// OnProjectileHit is called when a projectile sweeps into an obstacle,
	// before the projectile is queued for destruction.
	OnProjectileHit func(projectile ecs.EntityID, hit RayHit)

	projectileHits uint64
	scratch        []segmentHit
}

func NewWorld(w *ecs.World, comps *component.Stores, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		world: w,
		comps: comps,
		space: cp.NewSpace(),
		log:   log,
	}
}

// AddBox adds an axis-aligned prism spanning [minX,maxX]×[minY,maxY]×[minZ,maxZ].
func (p *World) AddBox(minX, minY, minZ, maxX, maxY, maxZ float64) int {
	bb := cp.BB{L: math.Min(minX, maxX), B: math.Min(minZ, maxZ), R: math.Max(minX, maxX), T: math.Max(minZ, maxZ)}
	return p.add(cp.NewBox2(p.space.StaticBody, bb, 0), minY, maxY)
}

// AddCylinder adds a vertical cylinder centred on (x, z).
func (p *World) AddCylinder(x, z, radius, minY, maxY float64) int {
	return p.add(cp.NewCircle(p.space.StaticBody, math.Abs(radius), cp.Vector{X: x, Y: z}), minY, maxY)
}

func (p *World) add(shape *cp.Shape, minY, maxY float64) int {
	p.nextID++
	shape.UserData = &obstacle{id: p.nextID, minY: math.Min(minY, maxY), maxY: math.Max(minY, maxY)}
	p.space.AddShape(shape)
	p.shapes = append(p.shapes, shape)
	return p.nextID
}

// Obstacles returns the number of static obstacles.
func (p *World) Obstacles() int { return len(p.shapes) }

// ClearObstacles removes every obstacle.
func (p *World) ClearObstacles() {
	for _, s := range p.shapes {
		p.space.RemoveShape(s)
	}
	p.shapes = p.shapes[:0]
}

type segmentHit struct {
	alpha  float64
	point  cp.Vector
	normal cp.Vector
	obs    *obstacle
}

// Raycast returns the nearest obstacle hit along dir within maxLen. dir is
// expected to be unit length. Rays with no horizontal extent never hit.
func (p *World) Raycast(origin, dir mgl64.Vec3, maxLen float64) (RayHit, bool) {
	if !(maxLen > 0) || len(p.shapes) == 0 {
		return RayHit{}, false
	}
	end := origin.Add(dir.Mul(maxLen))
	return p.sweep(origin, end)
}

func (p *World) sweep(from, to mgl64.Vec3) (RayHit, bool) {
	delta := to.Sub(from)
	if math.Hypot(delta.X(), delta.Z()) < 1e-9 {
		return RayHit{}, false
	}
	start := cp.Vector{X: from.X(), Y: from.Z()}
	end := cp.Vector{X: to.X(), Y: to.Z()}

	p.scratch = p.scratch[:0]
	p.space.SegmentQuery(start, end, 0, cp.SHAPE_FILTER_ALL,
		func(shape *cp.Shape, point, normal cp.Vector, alpha float64, _ interface{}) {
			obs, ok := shape.UserData.(*obstacle)
			if !ok {
				return
			}
			p.scratch = append(p.scratch, segmentHit{alpha: alpha, point: point, normal: normal, obs: obs})
		}, nil)
	if len(p.scratch) == 0 {
		return RayHit{}, false
	}
	sort.Slice(p.scratch, func(i, j int) bool { return p.scratch[i].alpha < p.scratch[j].alpha })

	length := delta.Len()
	for _, h := range p.scratch {
		y := from.Y() + delta.Y()*h.alpha
		if y < h.obs.minY || y > h.obs.maxY {
			continue
		}
		return RayHit{
			Point:    mgl64.Vec3{h.point.X, y, h.point.Y},
			Normal:   mgl64.Vec3{h.normal.X, 0, h.normal.Y},
			Distance: length * h.alpha,
		}, true
	}
	return RayHit{}, false
}

// Step advances every rigid body by dt. Projectiles that cross an obstacle
// are marked for destruction; the caller flushes the queue.
func (p *World) Step(dt float64) {
	if !(dt > 0) {
		return
	}
	ecs.Each3(p.comps.Positions, p.comps.Velocities, p.comps.Bodies,
		func(id ecs.EntityID, pos *component.Position, vel *component.Velocity, body *component.RigidBody) {
			if body.UseGravity {
				vel.VY += Gravity * dt
			}
			if body.LinearDamping > 0 {
				k := math.Max(0, 1-body.LinearDamping*dt)
				vel.VX *= k
				vel.VY *= k
				vel.VZ *= k
			}
			from := mgl64.Vec3{pos.X, pos.Y, pos.Z}
			pos.X += vel.VX * dt
			pos.Y += vel.VY * dt
			pos.Z += vel.VZ * dt

			if len(p.shapes) == 0 || !p.comps.Projectiles.Has(id) {
				return
			}
			if hit, ok := p.sweep(from, mgl64.Vec3{pos.X, pos.Y, pos.Z}); ok {
				p.projectileHits++
				if p.OnProjectileHit != nil {
					p.OnProjectileHit(id, hit)
				}
				p.world.MarkForDestruction(id)
				p.log.Debug("projectile hit obstacle",
					zap.Stringer("entity", id),
					zap.Float64("distance", hit.Distance))
			}
		})
}

// ProjectileHits counts projectiles stopped by obstacles since creation.
func (p *World) ProjectileHits() uint64 { return p.projectileHits }

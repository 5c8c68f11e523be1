package component

// Position is a world-space location in meters.
// Pure data; systems do all mutation.
type Position struct {
	X, Y, Z float64
}

// Velocity in meters per second.
type Velocity struct {
	VX, VY, VZ float64
}

// RigidBody is consumed by the physics integrator.
type RigidBody struct {
	Mass           float64
	UseGravity     bool
	LinearDamping  float64
	AngularDamping float64
}

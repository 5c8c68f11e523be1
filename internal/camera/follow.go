package camera

import (
	"math"
	"reflect"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/novaengine/nova/internal/physics"
)

const (
	tau = 2 * math.Pi
	eps = 1e-6

	// 鎖定模式下每 tick 的滑鼠偏航上限
	lockYawThreshold = 0.001
	lockYawMaxStep   = 0.1

	shoulderLimit = 2.0

	// 轉場值在此範圍內直接貼齊 0 或 1，免得自由視角要等到浮點下溢
	transitionSnap = 1e-4
)

// Config tunes the follow camera. Call Validate after editing fields by hand;
// the controller does so on SetConfig and before every update.
type Config struct {
	OrbitDistance float64 `ini:"orbitDistance" yaml:"orbit_distance"`
	OrbitHeight   float64 `ini:"orbitHeight" yaml:"orbit_height"`

	MinDistanceFromPlayer float64 `ini:"minDistanceFromPlayer" yaml:"min_distance_from_player"`
	GroundLevel           float64 `ini:"groundLevel" yaml:"ground_level"`
	TerrainBuffer         float64 `ini:"terrainBuffer" yaml:"terrain_buffer"`

	TransitionSpeed   float64 `ini:"transitionSpeed" yaml:"transition_speed"`
	PosResponsiveness float64 `ini:"posResponsiveness" yaml:"pos_responsiveness"`
	RotResponsiveness float64 `ini:"rotResponsiveness" yaml:"rot_responsiveness"`
	MaxDeltaTimeClamp float64 `ini:"maxDeltaTimeClamp" yaml:"max_delta_time_clamp"`

	MoveSpeedHorizontal float64 `ini:"moveSpeedHorizontal" yaml:"move_speed_horizontal"`
	MoveSpeedVertical   float64 `ini:"moveSpeedVertical" yaml:"move_speed_vertical"`
	FreeAccelHz         float64 `ini:"freeAccelHz" yaml:"free_accel_hz"`
	SprintMultiplier    float64 `ini:"sprintMultiplier" yaml:"sprint_multiplier"`
	PitchAffectsForward bool    `ini:"pitchAffectsForward" yaml:"pitch_affects_forward"`
	FreeVelDeadzone     float64 `ini:"freeVelDeadzone" yaml:"free_vel_deadzone"`

	FreeLookSensYaw     float64 `ini:"freeLookSensYaw" yaml:"free_look_sens_yaw"`     // rad/px
	FreeLookSensPitch   float64 `ini:"freeLookSensPitch" yaml:"free_look_sens_pitch"` // rad/px
	InvertFreeLookYaw   bool    `ini:"invertFreeLookYaw" yaml:"invert_free_look_yaw"`
	InvertFreeLookPitch bool    `ini:"invertFreeLookPitch" yaml:"invert_free_look_pitch"`
	InvertLockYaw       bool    `ini:"invertLockYaw" yaml:"invert_lock_yaw"`
	InvertLockPitch     bool    `ini:"invertLockPitch" yaml:"invert_lock_pitch"`

	ShoulderOffset        float64 `ini:"shoulderOffset" yaml:"shoulder_offset"`
	DynamicShoulderFactor float64 `ini:"dynamicShoulderFactor" yaml:"dynamic_shoulder_factor"`
	PitchBias             float64 `ini:"pitchBias" yaml:"pitch_bias"`
	PitchMin              float64 `ini:"pitchMin" yaml:"pitch_min"`
	PitchMax              float64 `ini:"pitchMax" yaml:"pitch_max"`
	TopBlendScale         float64 `ini:"topBlendScale" yaml:"top_blend_scale"`
	ClampPitch            bool    `ini:"clampPitch" yaml:"clamp_pitch"`
	AlwaysTickFreeMode    bool    `ini:"alwaysTickFreeMode" yaml:"always_tick_free_mode"`
	NearVerticalDeg       float64 `ini:"nearVerticalDeg" yaml:"near_vertical_deg"`

	SoftGroundClamp bool    `ini:"softGroundClamp" yaml:"soft_ground_clamp"`
	GroundClampHz   float64 `ini:"groundClampHz" yaml:"ground_clamp_hz"`

	EnableObstacleAvoidance bool    `ini:"enableObstacleAvoidance" yaml:"enable_obstacle_avoidance"`
	ObstacleMargin          float64 `ini:"obstacleMargin" yaml:"obstacle_margin"`

	EnableTeleportHandling    bool    `ini:"enableTeleportHandling" yaml:"enable_teleport_handling"`
	TeleportDistanceThreshold float64 `ini:"teleportDistanceThreshold" yaml:"teleport_distance_threshold"`
	TeleportSnapFrames        int     `ini:"teleportSnapFrames" yaml:"teleport_snap_frames"`
	TeleportBlendSeconds      float64 `ini:"teleportBlendSeconds" yaml:"teleport_blend_seconds"`
	TeleportBlendMinAlpha     float64 `ini:"teleportBlendMinAlpha" yaml:"teleport_blend_min_alpha"`
}

func DefaultConfig() Config {
	return Config{
		OrbitDistance:         12,
		OrbitHeight:           3,
		MinDistanceFromPlayer: 2,
		GroundLevel:           0.5,
		TerrainBuffer:         1,

		TransitionSpeed:   3,
		PosResponsiveness: 10,
		RotResponsiveness: 12,
		MaxDeltaTimeClamp: 0.1,

		MoveSpeedHorizontal: 8,
		MoveSpeedVertical:   6,
		FreeAccelHz:         10,
		SprintMultiplier:    1.8,
		FreeVelDeadzone:     1e-4,

		FreeLookSensYaw:   0.0025,
		FreeLookSensPitch: 0.002,

		ShoulderOffset:        0.6,
		DynamicShoulderFactor: 0.2,
		PitchBias:             -0.2,
		PitchMin:              -1.45,
		PitchMax:              1.45,
		TopBlendScale:         10,
		ClampPitch:            true,
		AlwaysTickFreeMode:    true,
		NearVerticalDeg:       2,

		SoftGroundClamp: true,
		GroundClampHz:   20,

		ObstacleMargin: 0.5,

		EnableTeleportHandling:    true,
		TeleportDistanceThreshold: 10,
		TeleportSnapFrames:        2,
		TeleportBlendSeconds:      0.3,
		TeleportBlendMinAlpha:     0.65,
	}
}

// Validate clamps every knob into its legal range. NaN and infinite fields
// fall back to their defaults first. It is idempotent.
func (c *Config) Validate() {
	c.replaceNonFinite()

	c.OrbitDistance = math.Max(0, c.OrbitDistance)
	c.MinDistanceFromPlayer = math.Max(0, c.MinDistanceFromPlayer)
	c.TerrainBuffer = math.Max(0, c.TerrainBuffer)
	c.MaxDeltaTimeClamp = clamp(c.MaxDeltaTimeClamp, 1e-4, 0.5)

	c.TransitionSpeed = math.Max(0, c.TransitionSpeed)
	c.PosResponsiveness = math.Max(0, c.PosResponsiveness)
	c.RotResponsiveness = math.Max(0, c.RotResponsiveness)
	c.FreeAccelHz = math.Max(0, c.FreeAccelHz)
	c.GroundClampHz = math.Max(0, c.GroundClampHz)

	if c.PitchMin > c.PitchMax {
		c.PitchMin, c.PitchMax = c.PitchMax, c.PitchMin
	}
	const almostHalfPi = 0.98 * math.Pi / 2
	c.PitchMin = clamp(c.PitchMin, -almostHalfPi, 0)
	c.PitchMax = clamp(c.PitchMax, 0, almostHalfPi)

	c.NearVerticalDeg = clamp(c.NearVerticalDeg, 0, 89.9)
	c.SprintMultiplier = math.Max(1, c.SprintMultiplier)

	if !finite(c.FreeVelDeadzone) || c.FreeVelDeadzone < 0 {
		c.FreeVelDeadzone = 1e-4
	}
	c.DynamicShoulderFactor = clamp(c.DynamicShoulderFactor, -1, 1)

	c.TeleportDistanceThreshold = math.Max(0, c.TeleportDistanceThreshold)
	if c.TeleportSnapFrames < 0 {
		c.TeleportSnapFrames = 0
	}
	c.TeleportBlendSeconds = clamp(c.TeleportBlendSeconds, 0, 1)
	c.TeleportBlendMinAlpha = clamp(c.TeleportBlendMinAlpha, 0, 1)
}

func (c *Config) replaceNonFinite() {
	v := reflect.ValueOf(c).Elem()
	def := reflect.ValueOf(DefaultConfig())
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.Float64 && !finite(f.Float()) {
			f.SetFloat(def.Field(i).Float())
		}
	}
}

// State is the smoothing history of the follow camera. The zero value is the
// reset state.
type State struct {
	TargetLockTransition float64 // [0,1]
	WasTargetLocked      bool

	FreeVel mgl64.Vec3

	OrbitYaw          float64
	LockedOrbitOffset float64

	LastDesired             mgl64.Vec3
	HasLastDesired          bool
	TeleportFramesRemaining int
	TeleportBlendTimer      float64
}

// Input is what the follow camera needs to know about its target each tick.
type Input struct {
	Player mgl64.Vec3
	Locked bool

	// Per-tick mouse-look deltas in radians, consumed only while locked.
	YawOffset   float64
	PitchOffset float64
}

// Raycaster finds the first obstacle along a ray. dir must be unit length.
type Raycaster interface {
	Raycast(origin, dir mgl64.Vec3, maxLen float64) (physics.RayHit, bool)
}

// Step reports what one UpdateTargetLock call did.
type Step struct {
	Skipped    bool
	Transition float64 // smoothstepped
	Desired    mgl64.Vec3
	PosAlpha   float64
	RotAlpha   float64
	Teleported bool
	Jump       float64 // distance the desired point moved since last tick
	Obstacle   *physics.RayHit
	Moved      float64 // distance the camera moved this tick
}

// ExpAlpha is the frame-rate independent smoothing factor for a rate in Hz.
func ExpAlpha(hz, dt float64) float64 {
	return 1 - math.Exp(-math.Max(0, hz)*math.Max(0, dt))
}

func SmoothStep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// WrapAngle maps a onto (-π, π].
func WrapAngle(a float64) float64 {
	return math.Remainder(a, tau)
}

// UpdateTargetLock advances the lock transition and moves cam toward the
// blended lock pose. rc may be nil.
func UpdateTargetLock(cam *Camera, st *State, cfg *Config, in Input, dt float64, rc Raycaster) Step {
	cfg.Validate()
	dt = clamp(dt, 0, math.Max(0, cfg.MaxDeltaTimeClamp))

	teleportEnabled := cfg.EnableTeleportHandling
	hadLastDesired := st.HasLastDesired
	prevDesired := st.LastDesired

	tTarget := 0.0
	if in.Locked {
		tTarget = 1
	}
	st.TargetLockTransition += (tTarget - st.TargetLockTransition) * clamp(ExpAlpha(cfg.TransitionSpeed, dt), 0, 1)
	if math.Abs(tTarget-st.TargetLockTransition) < transitionSnap {
		st.TargetLockTransition = tTarget
	}
	st.TargetLockTransition = clamp(st.TargetLockTransition, 0, 1)
	t := SmoothStep(st.TargetLockTransition)

	step := Step{Transition: t}
	if !cfg.AlwaysTickFreeMode && t <= 0 && !in.Locked {
		step.Skipped = true
		return step
	}

	yawInput, pitchInput := in.YawOffset, in.PitchOffset
	if cfg.InvertLockYaw {
		yawInput = -yawInput
	}
	if cfg.InvertLockPitch {
		pitchInput = -pitchInput
	}

	p := in.Player
	start := cam.Position()
	camYaw := WrapAngle(cam.Yaw)
	camPitch := cam.Pitch

	var orbitYaw, yawForShoulder float64
	if in.Locked {
		if !st.WasTargetLocked {
			dx, dz := p.X()-start.X(), p.Z()-start.Z()
			if dx*dx+dz*dz > eps*eps {
				st.LockedOrbitOffset = math.Atan2(dx, dz)
			} else {
				st.LockedOrbitOffset = camYaw
			}
			st.LockedOrbitOffset = WrapAngle(st.LockedOrbitOffset)
		}
		delta := yawInput
		if math.Abs(delta) > lockYawThreshold {
			delta = clamp(delta, -lockYawMaxStep, lockYawMaxStep)
			st.LockedOrbitOffset += delta
		}
		st.LockedOrbitOffset = WrapAngle(st.LockedOrbitOffset)
		orbitYaw = st.LockedOrbitOffset
		yawForShoulder = delta
	} else {
		st.OrbitYaw = camYaw
		orbitYaw = st.OrbitYaw
	}
	st.WasTargetLocked = in.Locked

	s, c := math.Sincos(orbitYaw)
	lock := mgl64.Vec3{
		p.X() - s*cfg.OrbitDistance,
		p.Y() + cfg.OrbitHeight,
		p.Z() - c*cfg.OrbitDistance,
	}
	shoulder := clamp(cfg.ShoulderOffset-yawForShoulder*cfg.DynamicShoulderFactor, -shoulderLimit, shoulderLimit)
	lock = lock.Add(mgl64.Vec3{c, 0, -s}.Mul(shoulder))

	desired := start.Add(lock.Sub(start).Mul(t))
	step.Desired = desired

	if teleportEnabled && hadLastDesired {
		step.Jump = desired.Sub(prevDesired).Len()
		if step.Jump > cfg.TeleportDistanceThreshold {
			if cfg.TeleportSnapFrames > 0 && st.TeleportFramesRemaining < cfg.TeleportSnapFrames {
				st.TeleportFramesRemaining = cfg.TeleportSnapFrames
			}
			if cfg.TeleportBlendSeconds > 0 {
				st.TeleportBlendTimer = math.Max(st.TeleportBlendTimer, cfg.TeleportBlendSeconds)
			}
			st.FreeVel = mgl64.Vec3{}
			step.Teleported = true
		}
	}

	posA := clamp(ExpAlpha(cfg.PosResponsiveness, dt), 0, 1)
	rotA := clamp(ExpAlpha(cfg.RotResponsiveness, dt), 0, 1)
	if teleportEnabled {
		if st.TeleportFramesRemaining > 0 {
			posA, rotA = 1, 1
		} else if st.TeleportBlendTimer > 0 {
			posA = math.Max(posA, cfg.TeleportBlendMinAlpha)
			rotA = math.Max(rotA, cfg.TeleportBlendMinAlpha)
		}
	}
	step.PosAlpha, step.RotAlpha = posA, rotA

	n := start.Add(desired.Sub(start).Mul(posA))

	off := n.Sub(p)
	if dist := off.Len(); dist > eps && dist < cfg.MinDistanceFromPlayer {
		n = p.Add(off.Mul(cfg.MinDistanceFromPlayer / dist))
	}

	groundY := cfg.GroundLevel + cfg.TerrainBuffer
	if cfg.SoftGroundClamp && n.Y() < groundY {
		n[1] += (groundY - n.Y()) * clamp(ExpAlpha(cfg.GroundClampHz, dt), 0, 1)
	} else {
		n[1] = math.Max(n.Y(), groundY)
	}

	if cfg.EnableObstacleAvoidance && rc != nil {
		ray := n.Sub(p)
		if length := ray.Len(); length > eps {
			if hit, ok := rc.Raycast(p, ray.Mul(1/length), length); ok {
				n = hit.Point.Add(hit.Normal.Mul(cfg.ObstacleMargin))
				n[1] = math.Max(n.Y(), groundY)
				step.Obstacle = &hit
			}
		}
	}

	d := p.Sub(n)
	horizRaw := math.Hypot(d.X(), d.Z())
	horiz := math.Max(eps, horizRaw)
	elev := math.Atan2(d.Y(), horiz)
	nearVertical := math.Abs(elev) > math.Pi/2-mgl64.DegToRad(clamp(cfg.NearVerticalDeg, 0, 89.9))

	yawLocked := math.Atan2(d.X(), d.Z())
	if nearVertical {
		yawLocked = camYaw
	}
	pitchLocked := -math.Atan2(d.Y(), horiz) + cfg.PitchBias + pitchInput*t

	targetYaw := camYaw + WrapAngle(yawLocked-camYaw)*t
	topBlend := clamp(horizRaw*cfg.TopBlendScale, 0, 1)
	targetPitch := camPitch + (pitchLocked-camPitch)*(t*topBlend)

	camYaw += WrapAngle(targetYaw-camYaw) * rotA
	camPitch += (targetPitch - camPitch) * rotA
	if cfg.ClampPitch {
		camPitch = clamp(camPitch, cfg.PitchMin, cfg.PitchMax)
	}
	cam.SetOrientation(camPitch, WrapAngle(camYaw))
	cam.SetPosition(n.X(), n.Y(), n.Z())
	step.Moved = n.Sub(start).Len()

	if teleportEnabled {
		if st.TeleportFramesRemaining > 0 {
			st.TeleportFramesRemaining--
		} else if st.TeleportBlendTimer > 0 {
			st.TeleportBlendTimer = math.Max(0, st.TeleportBlendTimer-dt)
		}
	}

	st.LastDesired = desired
	st.HasLastDesired = true
	return step
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

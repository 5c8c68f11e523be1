package camera

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	freeLookDeadzonePx = 0.2
	freeLookMaxPitch   = 1.55334 // ~89°
	slowFactor         = 0.5

	largeMoveMeters = 1.0
)

// MovementInput is one tick of free-camera controls.
type MovementInput struct {
	Forward, Back bool
	Left, Right   bool
	Up, Down      bool
	Sprint, Slow  bool

	// MoveSpeed > 0 overrides both configured speeds.
	MoveSpeed float64

	MouseDX, MouseDY float64 // pixels since last tick
}

func (m MovementInput) axes() (fwd, right, up int) {
	return b2i(m.Forward) - b2i(m.Back), b2i(m.Right) - b2i(m.Left), b2i(m.Up) - b2i(m.Down)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Controller drives a Camera between free flight and target lock.
// Not safe for concurrent use; the sim thread owns it.
type Controller struct {
	cam      *Camera
	cfg      Config
	state    State
	suppress bool
	rc       Raycaster

	log     *zap.Logger
	limiter *rate.Limiter
	last    Step
}

func NewController(cam *Camera, cfg Config, log *zap.Logger) *Controller {
	if cam == nil {
		cam = New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.Validate()
	return &Controller{
		cam:     cam,
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

func (c *Controller) Camera() *Camera { return c.cam }

func (c *Controller) Config() Config { return c.cfg }

// SetConfig validates and installs cfg. Follow state is kept.
func (c *Controller) SetConfig(cfg Config) {
	cfg.Validate()
	c.cfg = cfg
}

// SetRaycaster installs the obstacle collaborator; nil disables avoidance.
func (c *Controller) SetRaycaster(rc Raycaster) { c.rc = rc }

// State returns a copy of the follow state.
func (c *Controller) State() State { return c.state }

// LastStep describes the most recent target-lock update.
func (c *Controller) LastStep() Step { return c.last }

// Reset clears smoothing history without touching the camera pose.
func (c *Controller) Reset() { c.state = State{} }

// SuppressNextUpdate makes the next Update a no-op.
func (c *Controller) SuppressNextUpdate() { c.suppress = true }

func (c *Controller) Suppressed() bool { return c.suppress }

func (c *Controller) Update(in Input, mv MovementInput, dt float64) {
	if c.suppress {
		c.suppress = false
		return
	}
	if in.Locked && !c.state.WasTargetLocked {
		c.state.FreeVel = mgl64.Vec3{}
		// 進入鎖定的這一幀照常更新，吸收下一幀的輸入
		c.suppress = true
	}

	c.last = UpdateTargetLock(c.cam, &c.state, &c.cfg, in, dt, c.rc)
	c.report(c.last)

	if !in.Locked && c.state.TargetLockTransition <= 0 {
		c.freeLook(mv)
		c.freeMove(mv, dt)
	}
	c.state.WasTargetLocked = in.Locked
}

func (c *Controller) report(s Step) {
	if s.Skipped {
		return
	}
	if !s.Teleported && s.Obstacle == nil && s.Moved <= largeMoveMeters {
		return
	}
	if !c.limiter.Allow() {
		return
	}
	switch {
	case s.Teleported:
		c.log.Info("camera target teleported",
			zap.Float64("jump", s.Jump),
			zap.Int("snap_frames", c.state.TeleportFramesRemaining))
	case s.Obstacle != nil:
		c.log.Debug("camera obstacle avoidance",
			zap.Float64("hit_x", s.Obstacle.Point.X()),
			zap.Float64("hit_y", s.Obstacle.Point.Y()),
			zap.Float64("hit_z", s.Obstacle.Point.Z()),
			zap.Float64("distance", s.Obstacle.Distance))
	default:
		c.log.Debug("large camera move",
			zap.Float64("moved", s.Moved),
			zap.Float64("pos_alpha", s.PosAlpha))
	}
}

func (c *Controller) freeLook(mv MovementInput) {
	dx := deadzone(mv.MouseDX, freeLookDeadzonePx)
	dy := deadzone(mv.MouseDY, freeLookDeadzonePx)

	yawSign, pitchSign := 1.0, 1.0
	if c.cfg.InvertFreeLookYaw {
		yawSign = -1
	}
	if c.cfg.InvertFreeLookPitch {
		pitchSign = -1
	}
	yaw := c.cam.Yaw + yawSign*dx*c.cfg.FreeLookSensYaw
	pitch := c.cam.Pitch + pitchSign*(-dy*c.cfg.FreeLookSensPitch)
	c.cam.SetOrientation(clamp(pitch, -freeLookMaxPitch, freeLookMaxPitch), WrapAngle(yaw))
}

func deadzone(v, dz float64) float64 {
	if math.Abs(v) < dz {
		return 0
	}
	return v
}

func (c *Controller) freeMove(mv MovementInput, dt float64) {
	cfg := &c.cfg
	if mv.MoveSpeed <= 0 && cfg.MoveSpeedHorizontal <= 0 && cfg.MoveSpeedVertical <= 0 {
		return
	}
	dt = clamp(dt, 0, cfg.MaxDeltaTimeClamp)

	speed := 1.0
	if mv.Sprint {
		speed *= cfg.SprintMultiplier
	}
	if mv.Slow {
		speed *= slowFactor
	}

	fwd, right, _ := c.cam.Basis(cfg.PitchAffectsForward)
	fwdIn, rightIn, upIn := mv.axes()

	// 水平方向先正規化，斜向移動不會比較快
	h := mgl64.Vec3{
		float64(rightIn)*right.X() + float64(fwdIn)*fwd.X(),
		0,
		float64(rightIn)*right.Z() + float64(fwdIn)*fwd.Z(),
	}
	if h.LenSqr() > 0 {
		h = h.Normalize()
	}

	baseH, baseV := cfg.MoveSpeedHorizontal, cfg.MoveSpeedVertical
	if mv.MoveSpeed > 0 {
		baseH, baseV = mv.MoveSpeed, mv.MoveSpeed
	}
	want := mgl64.Vec3{
		h.X() * baseH * speed,
		float64(upIn) * baseV * speed,
		h.Z() * baseH * speed,
	}
	if fwdIn == 0 && rightIn == 0 && upIn == 0 {
		want = mgl64.Vec3{}
	}

	alpha := clamp(ExpAlpha(cfg.FreeAccelHz, dt), 0, 1)
	v := c.state.FreeVel
	v = v.Add(want.Sub(v).Mul(alpha))
	for i := range v {
		if math.Abs(v[i]) < cfg.FreeVelDeadzone {
			v[i] = 0
		}
	}
	c.state.FreeVel = v

	p := c.cam.Position().Add(v.Mul(dt))
	c.cam.SetPosition(p.X(), p.Y(), p.Z())
}

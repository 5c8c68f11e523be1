// Package pacing adapts the target frame rate and vsync policy from rolling
// frame timings.
package pacing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/novaengine/nova/internal/frame"
)

const (
	MinFPS = 30.0
	MaxFPS = 360.0

	minSamples = 5

	vsyncSmoothing  = 0.1
	targetSmoothing = 0.15
	safetyMargin    = 1.10
)

// Env vars read by ApplyEnv.
const (
	EnvTargetFPS       = "NOVA_TARGET_FPS"
	EnvNoAdaptiveVSync = "NOVA_NO_ADAPTIVE_VSYNC"
)

// Settings is the policy output consumed by the host and renderer.
type Settings struct {
	VSync     bool
	TargetFPS float64
}

// Controller owns Settings and adapts them once per frame.
type Controller struct {
	settings Settings

	adaptive      bool // false: Update only records timings
	adaptiveVSync bool
	pinned        bool // target fixed by env; never blended

	last frame.RollingAverages

	log     *zap.Logger
	limiter *rate.Limiter
}

func New(initial Settings, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		adaptive:      true,
		adaptiveVSync: true,
		log:           log,
		limiter:       rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
	c.settings.VSync = initial.VSync
	c.SetTargetFPS(initial.TargetFPS)
	return c
}

// ApplyEnv reads NOVA_TARGET_FPS and NOVA_NO_ADAPTIVE_VSYNC through getenv.
func (c *Controller) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvTargetFPS)); v != "" {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(fps) || math.IsInf(fps, 0) {
			c.log.Warn("ignoring invalid target fps override", zap.String("value", v))
		} else {
			c.settings.TargetFPS = clampFPS(fps, MinFPS)
			c.pinned = true
			c.log.Info("target fps pinned", zap.Float64("fps", c.settings.TargetFPS))
		}
	}
	if v := strings.TrimSpace(getenv(EnvNoAdaptiveVSync)); v == "1" || strings.EqualFold(v, "true") {
		c.adaptiveVSync = false
	}
}

// Settings returns the current policy.
func (c *Controller) Settings() Settings { return c.settings }

func (c *Controller) VSync() bool        { return c.settings.VSync }
func (c *Controller) TargetFPS() float64 { return c.settings.TargetFPS }
func (c *Controller) Pinned() bool       { return c.pinned }

// LastTimings returns the averages passed to the most recent Update.
func (c *Controller) LastTimings() frame.RollingAverages { return c.last }

// SetAdaptive turns the whole policy on or off. Headless runs disable it.
func (c *Controller) SetAdaptive(on bool) { c.adaptive = on }

// SetAdaptiveVSync turns the vsync auto-toggle branch on or off.
func (c *Controller) SetAdaptiveVSync(on bool) { c.adaptiveVSync = on }

func (c *Controller) SetVSync(on bool) { c.settings.VSync = on }
func (c *Controller) ToggleVSync()     { c.settings.VSync = !c.settings.VSync }

// SetTargetFPS clamps into {0} ∪ [30, 360]. NaN and Inf are ignored.
func (c *Controller) SetTargetFPS(fps float64) {
	if math.IsNaN(fps) || math.IsInf(fps, 0) {
		return
	}
	if fps <= 0 {
		c.settings.TargetFPS = 0
		return
	}
	c.settings.TargetFPS = clampFPS(fps, MinFPS)
}

// AdjustTargetFPS nudges the target by delta.
func (c *Controller) AdjustTargetFPS(delta float64) {
	c.SetTargetFPS(c.settings.TargetFPS + delta)
}

// DesiredFrameDuration is 1/target, or 0 when uncapped.
func (c *Controller) DesiredFrameDuration() time.Duration {
	if c.settings.TargetFPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.settings.TargetFPS)
}

func (c *Controller) desiredSeconds() float64 {
	if c.settings.TargetFPS <= 0 {
		return 0
	}
	return 1 / c.settings.TargetFPS
}

// Update evaluates the policy against the latest rolling averages.
func (c *Controller) Update(avg frame.RollingAverages) {
	c.last = avg
	if !c.adaptive || avg.SampleCount < minSamples {
		return
	}

	active := avg.Active()
	frameDur := avg.FrameSeconds
	if frameDur <= 0 {
		frameDur = active + avg.Present
	}
	if !isFinite(active) || !isFinite(frameDur) || frameDur <= 0 {
		return
	}
	idle := math.Max(0, frameDur-active)
	idleRatio := idle / frameDur

	if c.settings.TargetFPS <= 0 && !c.settings.VSync {
		return
	}
	desired := c.desiredSeconds()

	if c.settings.VSync {
		if desired > 0 && active > desired*0.95 && idleRatio < 0.05 {
			// 工作量已吃滿 vsync 預算，關閉以免掉到半速
			c.settings.VSync = false
			c.note("vsync disabled", active, idleRatio)
		} else {
			measured := clampFPS(1/frameDur, MinFPS)
			c.blend(measured, vsyncSmoothing)
			return
		}
	} else if c.adaptiveVSync && idleRatio > 0.25 {
		c.settings.VSync = true
		if !c.pinned {
			c.settings.TargetFPS = clampFPS(1/frameDur, MinFPS)
		}
		c.note("vsync enabled", active, idleRatio)
		return
	}

	if c.pinned {
		return
	}
	if c.settings.TargetFPS <= 0 {
		c.settings.TargetFPS = clampFPS(1/frameDur, MinFPS)
	}

	recommended := active * safetyMargin
	if desired > 0 {
		recommended = clamp(recommended, desired*0.5, desired*1.5)
	}
	if !isFinite(recommended) || recommended <= 0 {
		return
	}
	c.blend(clampFPS(1/recommended, MinFPS), targetSmoothing)
}

func (c *Controller) blend(toward, k float64) {
	if c.pinned {
		return
	}
	c.settings.TargetFPS = (1-k)*c.settings.TargetFPS + k*toward
}

func (c *Controller) note(msg string, active, idleRatio float64) {
	if !c.limiter.Allow() {
		return
	}
	c.log.Info(msg,
		zap.Float64("active_ms", active*1000),
		zap.Float64("idle_ratio", idleRatio),
		zap.Float64("target_fps", c.settings.TargetFPS))
}

func clampFPS(fps, lo float64) float64 { return clamp(fps, lo, MaxFPS) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

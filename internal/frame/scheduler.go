package frame

import (
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxSubsteps bounds the catch-up loop so a long stall cannot spiral.
const maxSubsteps = 5

// maxInterpolation is the largest float64 below 1.
var maxInterpolation = math.Nextafter(1, 0)

// Config controls the fixed-step loop.
type Config struct {
	FixedUpdateHz float64 // 0 disables fixed updates
	MaxRenderHz   float64 // 0 = uncapped
	TimingHistory int     // rolling window size in frames
}

func DefaultConfig() Config {
	return Config{FixedUpdateHz: 60, MaxRenderHz: 0, TimingHistory: 120}
}

// Callbacks are invoked in order once per frame. Any may be nil.
type Callbacks struct {
	ShouldContinue  func() bool
	OnFrameStart    func(elapsed float64)
	OnFixedUpdate   func(dt float64)
	OnRender        func(interpolation float64)
	OnFrameComplete func(info FrameInfo)

	// Stages supplies measured stage durations; nil means frame time only.
	Stages StageSource
}

// Scheduler runs a fixed-timestep simulation decoupled from a variable-rate
// render. It owns no goroutines; Run blocks the caller until ShouldContinue
// reports false.
type Scheduler struct {
	clock   Clock
	log     *zap.Logger
	fixedDt float64
	maxHz   float64
	lag     float64
	paused  bool
	frames  uint64
	rolling *Rolling

	prev    time.Time
	started bool

	stallLimiter *rate.Limiter
}

func NewScheduler(cfg Config, clock Clock, log *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		clock:        clock,
		log:          log,
		rolling:      NewRolling(cfg.TimingHistory),
		stallLimiter: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	if cfg.FixedUpdateHz > 0 && !math.IsInf(cfg.FixedUpdateHz, 0) {
		s.fixedDt = 1 / cfg.FixedUpdateHz
	}
	s.SetMaxRenderHz(cfg.MaxRenderHz)
	return s
}

// FixedDt returns the simulation step in seconds (0 when disabled).
func (s *Scheduler) FixedDt() float64 { return s.fixedDt }

// SetMaxRenderHz changes the frame cap. NaN and Inf are ignored; negative
// values uncap.
func (s *Scheduler) SetMaxRenderHz(hz float64) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return
	}
	s.maxHz = math.Max(0, hz)
}

func (s *Scheduler) MaxRenderHz() float64 { return s.maxHz }

// SetPaused stops fixed updates. Frame start and render still run, and lag
// does not build up while paused.
func (s *Scheduler) SetPaused(p bool) { s.paused = p }
func (s *Scheduler) Paused() bool     { return s.paused }
func (s *Scheduler) TogglePause()     { s.paused = !s.paused }

// Frames returns how many frames have completed.
func (s *Scheduler) Frames() uint64 { return s.frames }

// Rolling returns the current rolling averages.
func (s *Scheduler) Rolling() RollingAverages { return s.rolling.Averages() }

// Run loops until cb.ShouldContinue returns false. A nil ShouldContinue runs
// forever.
func (s *Scheduler) Run(cb Callbacks) {
	for s.continues(cb) {
		s.Frame(cb)
	}
}

func (s *Scheduler) continues(cb Callbacks) bool {
	return cb.ShouldContinue == nil || cb.ShouldContinue()
}

// Frame runs exactly one frame. Exposed for hosts that drive their own loop.
func (s *Scheduler) Frame(cb Callbacks) FrameInfo {
	frameStart := s.clock.Now()
	if !s.started {
		s.prev = frameStart
		s.started = true
	}
	elapsed := frameStart.Sub(s.prev).Seconds()
	if elapsed < 0 {
		// 時鐘倒退（NTP 校時），視為零
		elapsed = 0
	}
	s.prev = frameStart

	if !s.paused && s.fixedDt > 0 {
		s.lag += elapsed
	}

	if cb.OnFrameStart != nil {
		cb.OnFrameStart(elapsed)
	}

	steps := 0
	if !s.paused && s.fixedDt > 0 {
		for s.lag >= s.fixedDt && steps < maxSubsteps {
			if cb.OnFixedUpdate != nil {
				cb.OnFixedUpdate(s.fixedDt)
			}
			s.lag -= s.fixedDt
			steps++
		}
		if s.lag >= s.fixedDt && s.stallLimiter.AllowN(frameStart, 1) {
			s.log.Debug("fixed step catch-up capped",
				zap.Int("steps", steps),
				zap.Float64("lag", s.lag))
		}
	}

	interp := 0.0
	if s.fixedDt > 0 {
		// 殘餘延遲會保留到下一幀，插值係數維持在 [0,1)
		interp = math.Min(s.lag/s.fixedDt, maxInterpolation)
	}
	if cb.OnRender != nil {
		cb.OnRender(interp)
	}

	var stages StageDurations
	if cb.Stages != nil {
		stages = cb.Stages.TakeStages()
	}

	if s.maxHz > 0 {
		budget := time.Duration(float64(time.Second) / s.maxHz)
		if spent := s.clock.Now().Sub(frameStart); spent < budget {
			wait := budget - spent
			s.clock.Sleep(wait)
			// 限速等待與 vsync 等待同樣記在 present
			stages.Present += wait.Seconds()
		}
	}

	frameEnd := s.clock.Now()
	dur := frameEnd.Sub(frameStart).Seconds()
	if dur < 0 {
		dur = 0
	}
	s.rolling.Push(stages, dur)
	s.frames++

	info := FrameInfo{
		Index:                s.frames,
		ElapsedSeconds:       elapsed,
		FrameStart:           frameStart,
		FrameEnd:             frameEnd,
		Stages:               stages,
		Rolling:              s.rolling.Averages(),
		FrameDurationSeconds: dur,
		FixedSteps:           steps,
		Interpolation:        interp,
	}
	if cb.OnFrameComplete != nil {
		cb.OnFrameComplete(info)
	}
	return info
}

package frame

import "time"

// Stage names one timed slice of a frame.
type Stage int

const (
	StageInput Stage = iota
	StageSimulation
	StageRenderPrep
	StagePresent
)

// StageDurations holds per-stage wall time in seconds.
type StageDurations struct {
	Input      float64
	Simulation float64
	RenderPrep float64
	Present    float64
}

// Active is the time spent doing work this frame, excluding present.
func (s StageDurations) Active() float64 {
	return s.Input + s.Simulation + s.RenderPrep
}

func (s *StageDurations) add(o StageDurations) {
	s.Input += o.Input
	s.Simulation += o.Simulation
	s.RenderPrep += o.RenderPrep
	s.Present += o.Present
}

func (s *StageDurations) sub(o StageDurations) {
	s.Input -= o.Input
	s.Simulation -= o.Simulation
	s.RenderPrep -= o.RenderPrep
	s.Present -= o.Present
}

func (s StageDurations) scale(k float64) StageDurations {
	return StageDurations{s.Input * k, s.Simulation * k, s.RenderPrep * k, s.Present * k}
}

// RollingAverages are means over the most recent samples.
type RollingAverages struct {
	StageDurations
	FrameSeconds float64
	SampleCount  int
}

// FrameInfo is passed to OnFrameComplete.
type FrameInfo struct {
	Index                uint64
	ElapsedSeconds       float64
	FrameStart           time.Time
	FrameEnd             time.Time
	Stages               StageDurations
	Rolling              RollingAverages
	FrameDurationSeconds float64
	FixedSteps           int
	Interpolation        float64
}

// Rolling is a fixed-size ring of frame samples with running sums.
type Rolling struct {
	stages []StageDurations
	frames []float64
	next   int
	count  int

	sumStages StageDurations
	sumFrame  float64
	pushes    int
}

// NewRolling keeps up to size samples; size < 1 is treated as 1.
func NewRolling(size int) *Rolling {
	if size < 1 {
		size = 1
	}
	return &Rolling{
		stages: make([]StageDurations, size),
		frames: make([]float64, size),
	}
}

func (r *Rolling) Push(st StageDurations, frameSeconds float64) {
	if r.count == len(r.frames) {
		r.sumStages.sub(r.stages[r.next])
		r.sumFrame -= r.frames[r.next]
	} else {
		r.count++
	}
	r.stages[r.next] = st
	r.frames[r.next] = frameSeconds
	r.sumStages.add(st)
	r.sumFrame += frameSeconds
	r.next = (r.next + 1) % len(r.frames)

	// 週期性重算總和，避免浮點累積誤差
	r.pushes++
	if r.pushes%(len(r.frames)*8) == 0 {
		r.resum()
	}
}

func (r *Rolling) resum() {
	r.sumStages = StageDurations{}
	r.sumFrame = 0
	for i := 0; i < r.count; i++ {
		r.sumStages.add(r.stages[i])
		r.sumFrame += r.frames[i]
	}
}

// Averages returns the current means. All zero when empty.
func (r *Rolling) Averages() RollingAverages {
	if r.count == 0 {
		return RollingAverages{}
	}
	k := 1 / float64(r.count)
	return RollingAverages{
		StageDurations: r.sumStages.scale(k),
		FrameSeconds:   r.sumFrame * k,
		SampleCount:    r.count,
	}
}

func (r *Rolling) Len() int { return r.count }
func (r *Rolling) Cap() int { return len(r.frames) }

// Reset drops all samples.
func (r *Rolling) Reset() {
	for i := range r.frames {
		r.frames[i] = 0
		r.stages[i] = StageDurations{}
	}
	r.next, r.count, r.pushes = 0, 0, 0
	r.sumStages = StageDurations{}
	r.sumFrame = 0
}

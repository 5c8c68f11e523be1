package frame

// StageSource hands the scheduler the stage durations measured for the frame
// that just finished. The scheduler calls TakeStages once per frame, after
// OnRender.
type StageSource interface {
	TakeStages() StageDurations
}

// StageRecorder accumulates stage timings that the host measures around its
// own callbacks. It satisfies StageSource.
type StageRecorder struct {
	clock Clock
	cur   StageDurations
}

func NewStageRecorder(clock Clock) *StageRecorder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &StageRecorder{clock: clock}
}

// Time runs fn and adds its wall time to stage.
func (r *StageRecorder) Time(stage Stage, fn func()) {
	start := r.clock.Now()
	fn()
	r.Add(stage, r.clock.Now().Sub(start).Seconds())
}

// Add records seconds against stage. Negative values are ignored.
func (r *StageRecorder) Add(stage Stage, seconds float64) {
	if !(seconds > 0) {
		return
	}
	switch stage {
	case StageInput:
		r.cur.Input += seconds
	case StageSimulation:
		r.cur.Simulation += seconds
	case StageRenderPrep:
		r.cur.RenderPrep += seconds
	case StagePresent:
		r.cur.Present += seconds
	}
}

// TakeStages returns the accumulated durations and starts a new frame.
func (r *StageRecorder) TakeStages() StageDurations {
	out := r.cur
	r.cur = StageDurations{}
	return out
}

package pacing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaengine/nova/internal/frame"
)

func timings(active, frameSec float64) frame.RollingAverages {
	return frame.RollingAverages{
		StageDurations: frame.StageDurations{Simulation: active},
		FrameSeconds:   frameSec,
		SampleCount:    120,
	}
}

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestSetTargetFPS_Clamps(t *testing.T) {
	c := New(Settings{TargetFPS: 60}, nil)
	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{10, 30},
		{144, 144},
		{1000, 360},
	}
	for _, tc := range cases {
		c.SetTargetFPS(tc.in)
		assert.Equal(t, tc.want, c.TargetFPS(), "in=%v", tc.in)
	}

	c.SetTargetFPS(100)
	c.SetTargetFPS(math.NaN())
	c.SetTargetFPS(math.Inf(-1))
	assert.Equal(t, 100.0, c.TargetFPS())

	c.AdjustTargetFPS(-5)
	assert.Equal(t, 95.0, c.TargetFPS())
	fps := 95.0
	assert.Equal(t, time.Duration(float64(time.Second)/fps), c.DesiredFrameDuration())

	c.SetTargetFPS(0)
	assert.Zero(t, c.DesiredFrameDuration())
}

func TestUpdate_NeedsFiveSamples(t *testing.T) {
	c := New(Settings{VSync: false, TargetFPS: 120}, nil)
	avg := timings(0.001, 0.01)
	avg.SampleCount = 4
	c.Update(avg)
	assert.Equal(t, Settings{VSync: false, TargetFPS: 120}, c.Settings())
	assert.Equal(t, 4, c.LastTimings().SampleCount)
}

func TestUpdate_VSyncDisabledWhenSaturated(t *testing.T) {
	c := New(Settings{VSync: true, TargetFPS: 60}, nil)
	c.Update(timings(0.017, 0.0175))
	assert.False(t, c.VSync())
	// falls through to the blend toward 1/(active*1.1)
	want := 0.85*60 + 0.15*(1/(0.017*1.1))
	assert.InDelta(t, want, c.TargetFPS(), 1e-9)
}

func TestUpdate_VSyncOnTracksMeasuredRate(t *testing.T) {
	c := New(Settings{VSync: true, TargetFPS: 120}, nil)
	c.Update(timings(0.005, 1.0/60))
	assert.True(t, c.VSync())
	assert.InDelta(t, 0.9*120+0.1*60, c.TargetFPS(), 1e-9)
}

func TestUpdate_IdleEnablesVSyncAndSnaps(t *testing.T) {
	c := New(Settings{VSync: false, TargetFPS: 200}, nil)
	c.Update(timings(0.004, 0.008))
	assert.True(t, c.VSync())
	assert.InDelta(t, 125, c.TargetFPS(), 1e-9)
}

func TestUpdate_NoAdaptiveVSyncBlendsInstead(t *testing.T) {
	c := New(Settings{VSync: false, TargetFPS: 120}, nil)
	c.ApplyEnv(env(map[string]string{EnvNoAdaptiveVSync: "1"}))
	c.Update(timings(0.004, 0.008))
	assert.False(t, c.VSync())
	want := 0.85*120 + 0.15*(1/(0.004*1.1))
	assert.InDelta(t, want, c.TargetFPS(), 1e-9)
}

func TestUpdate_PinnedTargetNeverMoves(t *testing.T) {
	c := New(Settings{VSync: false, TargetFPS: 120}, nil)
	c.ApplyEnv(env(map[string]string{EnvTargetFPS: "90", EnvNoAdaptiveVSync: "1"}))
	require.True(t, c.Pinned())
	for i := 0; i < 10; i++ {
		c.Update(timings(0.004, 0.008))
	}
	assert.Equal(t, 90.0, c.TargetFPS())

	low := New(Settings{}, nil)
	low.ApplyEnv(env(map[string]string{EnvTargetFPS: "5"}))
	assert.Equal(t, MinFPS, low.TargetFPS())

	bad := New(Settings{TargetFPS: 60}, nil)
	bad.ApplyEnv(env(map[string]string{EnvTargetFPS: "fast"}))
	assert.False(t, bad.Pinned())
	assert.Equal(t, 60.0, bad.TargetFPS())
}

func TestUpdate_DisabledForHeadless(t *testing.T) {
	c := New(Settings{VSync: false, TargetFPS: 0}, nil)
	c.SetAdaptive(false)
	c.Update(timings(0.001, 0.1))
	assert.Equal(t, Settings{}, c.Settings())
}

func TestUpdate_UncappedWithoutVSyncIsLeftAlone(t *testing.T) {
	c := New(Settings{VSync: false, TargetFPS: 0}, nil)
	c.SetAdaptiveVSync(false)
	c.Update(timings(0.004, 0.008))
	assert.Equal(t, Settings{}, c.Settings())
}

func TestToggleVSync(t *testing.T) {
	c := New(Settings{}, nil)
	c.ToggleVSync()
	assert.True(t, c.VSync())
	c.SetVSync(false)
	assert.False(t, c.VSync())
}

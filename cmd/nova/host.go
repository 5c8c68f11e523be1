package main

import (
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/camera"
	"github.com/novaengine/nova/internal/feedback"
	"github.com/novaengine/nova/internal/frame"
	"github.com/novaengine/nova/internal/input"
	"github.com/novaengine/nova/internal/pacing"
	"github.com/novaengine/nova/internal/render"
	"github.com/novaengine/nova/internal/sim"
)

// vsyncHz stands in for the display refresh; the terminal has none.
const vsyncHz = 60.0

// host runs the frame callbacks: input and camera on the render path, the
// sim on fixed steps, pacing and tracing after each frame.
type host struct {
	sim      *sim.Sim
	sched    *frame.Scheduler
	pacing   *pacing.Controller
	input    input.Source
	renderer render.Renderer
	alerts   *feedback.AlertLog
	watcher  *camera.ProfileWatcher // nil when not watching
	trace    *frame.TraceWriter     // nil when tracing is off
	stages   *frame.StageRecorder
	log      *zap.Logger

	maxRenderHz float64 // hard cap from config, 0 = none
	maxFrames   uint64  // 0 = run until quit

	elapsed float64
	quit    atomic.Bool
}

func (h *host) callbacks() frame.Callbacks {
	return frame.Callbacks{
		ShouldContinue:  h.shouldContinue,
		OnFrameStart:    h.frameStart,
		OnFixedUpdate:   h.fixedUpdate,
		OnRender:        h.render,
		OnFrameComplete: h.frameComplete,
		Stages:          h.stages,
	}
}

// Stop ends the loop after the current frame. Safe from any goroutine.
func (h *host) Stop() { h.quit.Store(true) }

func (h *host) shouldContinue() bool {
	if h.quit.Load() {
		return false
	}
	return h.maxFrames == 0 || h.sched.Frames() < h.maxFrames
}

func (h *host) frameStart(elapsed float64) {
	h.elapsed = elapsed
	h.stages.Time(frame.StageInput, func() {
		if h.watcher != nil {
			if r, ok := h.watcher.Poll(); ok {
				h.sim.SetCameraConfig(r.Config)
				h.log.Info("camera profile reloaded", zap.String("profile", r.Profile))
			}
		}
		for _, ev := range h.sim.ApplyInput(h.input.Poll()) {
			h.handle(ev)
		}
	})
}

func (h *host) handle(ev input.Event) {
	switch ev.Action {
	case input.ActionToggleVSync:
		h.pacing.ToggleVSync()
		h.log.Info("vsync toggled", zap.Bool("vsync", h.pacing.VSync()))
	case input.ActionAdjustFPS:
		h.pacing.AdjustTargetFPS(ev.Delta)
		h.log.Info("target fps adjusted", zap.Float64("fps", h.pacing.TargetFPS()))
	case input.ActionTogglePause:
		h.sched.TogglePause()
		h.log.Info("pause toggled", zap.Bool("paused", h.sched.Paused()))
	case input.ActionQuit:
		h.Stop()
	}
}

func (h *host) fixedUpdate(dt float64) {
	h.stages.Time(frame.StageSimulation, func() { h.sim.FixedUpdate(dt) })
}

func (h *host) render(interp float64) {
	var scene *render.Scene
	h.stages.Time(frame.StageRenderPrep, func() {
		h.sim.UpdateCamera(h.elapsed)
		var alerts []feedback.Alert
		if h.alerts != nil {
			alerts = h.alerts.Snapshot()
		}
		scene = h.sim.Scene(interp, alerts)
		st := &scene.Status
		st.Frame = h.sched.Frames() + 1
		if avg := h.sched.Rolling(); avg.FrameSeconds > 0 {
			st.FPS = 1 / avg.FrameSeconds
		}
		st.TargetFPS = h.pacing.TargetFPS()
		st.VSync = h.pacing.VSync()
		st.Paused = h.sched.Paused()
	})
	h.stages.Time(frame.StagePresent, func() {
		if err := h.renderer.Render(scene); err != nil {
			h.log.Error("render failed", zap.Error(err))
			h.Stop()
		}
	})
}

func (h *host) frameComplete(info frame.FrameInfo) {
	h.pacing.Update(info.Rolling)
	h.sched.SetMaxRenderHz(renderCap(h.pacing.VSync(), h.pacing.TargetFPS(), h.maxRenderHz))
	if h.trace == nil {
		return
	}
	if err := h.trace.Write(frame.NewTraceRecord(info, h.pacing.TargetFPS(), h.pacing.VSync())); err != nil {
		h.log.Warn("frame trace disabled", zap.Error(err))
		_ = h.trace.Close()
		h.trace = nil
	}
}

// renderCap folds the pacing policy and the configured hard cap into one
// scheduler limit. 0 means uncapped.
func renderCap(vsync bool, target, hard float64) float64 {
	limit := target
	if vsync && (limit <= 0 || limit > vsyncHz) {
		limit = vsyncHz
	}
	if hard > 0 && (limit <= 0 || hard < limit) {
		limit = hard
	}
	return math.Max(0, limit)
}

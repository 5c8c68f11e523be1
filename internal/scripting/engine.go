package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/combat"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/feedback"
)

// 同一輪巢狀事件最多處理的數量，避免腳本互相觸發形成無限迴圈
const maxQueuedEvents = 64

// PowerDiverter is the part of the power arbiter scripts may drive.
type PowerDiverter interface {
	DivertPower(e ecs.EntityID, priority combat.Subsystem, amount float64)
}

// MessageSink receives hud_message text.
type MessageSink interface {
	Post(text string, sev feedback.Severity)
}

// Engine wraps a single gopher-lua VM running mission scripts.
// Single-goroutine access only (sim thread).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	power PowerDiverter
	hud   MessageSink

	depth   int
	pending []feedback.Event
	loaded  []string
}

// NewEngine creates a Lua engine and loads every .lua file in scriptsDir in
// lexical order. A missing directory yields an engine with no scripts.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.registerHost()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// SetPower wires divert_power. Without it the call is ignored.
func (e *Engine) SetPower(p PowerDiverter) { e.power = p }

// SetHUD wires hud_message. Without it messages are only logged.
func (e *Engine) SetHUD(h MessageSink) { e.hud = h }

// Loaded lists the script files in load order.
func (e *Engine) Loaded() []string { return e.loaded }

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.loaded = append(e.loaded, path)
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

func (e *Engine) registerHost() {
	e.vm.SetGlobal("divert_power", e.vm.NewFunction(e.luaDivertPower))
	e.vm.SetGlobal("hud_message", e.vm.NewFunction(e.luaHUDMessage))
}

// divert_power(entity, subsystem, amount) -> bool
func (e *Engine) luaDivertPower(L *lua.LState) int {
	id := ecs.EntityID(uint64(L.CheckNumber(1)))
	name := L.CheckString(2)
	amount := float64(L.CheckNumber(3))

	sub, err := combat.ParseSubsystem(name)
	if err != nil {
		e.log.Warn("lua divert_power: bad subsystem", zap.String("subsystem", name))
		L.Push(lua.LFalse)
		return 1
	}
	if e.power == nil {
		L.Push(lua.LFalse)
		return 1
	}
	e.power.DivertPower(id, sub, amount)
	L.Push(lua.LTrue)
	return 1
}

// hud_message(text [, severity])
func (e *Engine) luaHUDMessage(L *lua.LState) int {
	text := L.CheckString(1)
	sev := feedback.Info
	if L.GetTop() >= 2 {
		if v, ok := feedback.ParseSeverity(L.OptString(2, "info")); ok {
			sev = v
		}
	}
	if e.hud == nil {
		e.log.Info("hud message", zap.String("text", text))
		return 0
	}
	e.hud.Post(text, sev)
	return 0
}

// OnEvent forwards ev to the global on_feedback, if defined. Events raised
// while a script is running are queued and delivered after it returns.
func (e *Engine) OnEvent(ev feedback.Event) {
	if e.depth > 0 {
		if len(e.pending) < maxQueuedEvents {
			e.pending = append(e.pending, ev)
		} else {
			e.log.Warn("lua event queue full, dropping", zap.Stringer("type", ev.Type))
		}
		return
	}
	e.deliver(ev)
	for i := 0; i < len(e.pending); i++ {
		e.deliver(e.pending[i])
	}
	e.pending = e.pending[:0]
}

func (e *Engine) deliver(ev feedback.Event) {
	fn := e.vm.GetGlobal("on_feedback")
	if fn == lua.LNil {
		return
	}
	e.call("on_feedback", fn, e.eventTable(ev))
}

func (e *Engine) eventTable(ev feedback.Event) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("type", lua.LString(ev.Type.String()))
	t.RawSetString("entity", lua.LNumber(uint64(ev.Entity)))
	t.RawSetString("severity", lua.LString(ev.Severity.String()))
	t.RawSetString("magnitude", lua.LNumber(ev.Magnitude))
	t.RawSetString("x", lua.LNumber(ev.X))
	t.RawSetString("y", lua.LNumber(ev.Y))
	t.RawSetString("z", lua.LNumber(ev.Z))
	t.RawSetString("component", lua.LString(ev.Component))
	t.RawSetString("message", lua.LString(ev.Message))
	return t
}

// Tick calls the global on_tick(dt), if defined.
func (e *Engine) Tick(dt float64) {
	fn := e.vm.GetGlobal("on_tick")
	if fn == lua.LNil {
		return
	}
	e.call("on_tick", fn, lua.LNumber(dt))
	for i := 0; i < len(e.pending); i++ {
		e.deliver(e.pending[i])
	}
	e.pending = e.pending[:0]
}

func (e *Engine) call(name string, fn lua.LValue, args ...lua.LValue) {
	e.depth++
	defer func() { e.depth-- }()
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

package input

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1_700_000_000, 0)

func TestMapper_HeldKeysExpire(t *testing.T) {
	m := NewMapper(100 * time.Millisecond)
	m.HandleKey(tcell.KeyRune, 'w', tcell.ModNone, t0)
	m.HandleKey(tcell.KeyUp, 0, tcell.ModNone, t0)

	f := m.Frame(t0.Add(50 * time.Millisecond))
	assert.True(t, f.Ship.Forward)
	assert.True(t, f.Camera.Forward)
	assert.False(t, f.Ship.Back)

	f = m.Frame(t0.Add(150 * time.Millisecond))
	assert.False(t, f.Ship.Any())
	assert.False(t, f.Camera.Any())
}

func TestMapper_KeyMap(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		mod  tcell.ModMask
		want func(Frame) bool
	}{
		{"a strafes ship left", tcell.KeyRune, 'a', 0, func(f Frame) bool { return f.Ship.Left }},
		{"d strafes ship right", tcell.KeyRune, 'd', 0, func(f Frame) bool { return f.Ship.Right }},
		{"space climbs", tcell.KeyRune, ' ', 0, func(f Frame) bool { return f.Ship.Up }},
		{"c descends", tcell.KeyRune, 'c', 0, func(f Frame) bool { return f.Ship.Down }},
		{"s reverses", tcell.KeyRune, 's', 0, func(f Frame) bool { return f.Ship.Back }},
		{"page up lifts camera", tcell.KeyPgUp, 0, 0, func(f Frame) bool { return f.Camera.Up }},
		{"page down lowers camera", tcell.KeyPgDn, 0, 0, func(f Frame) bool { return f.Camera.Down }},
		{"left arrow", tcell.KeyLeft, 0, 0, func(f Frame) bool { return f.Camera.Left }},
		{"shift arrow sprints", tcell.KeyRight, 0, tcell.ModShift, func(f Frame) bool { return f.Camera.Right && f.Sprint }},
		{"ctrl arrow slows", tcell.KeyDown, 0, tcell.ModCtrl, func(f Frame) bool { return f.Camera.Back && f.Slow }},
		{"capital W sprints", tcell.KeyRune, 'W', 0, func(f Frame) bool { return f.Ship.Forward && f.Sprint }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMapper(0)
			m.HandleKey(tt.key, tt.r, tt.mod, t0)
			assert.True(t, tt.want(m.Frame(t0)))
		})
	}
}

func TestMapper_OneShotEvents(t *testing.T) {
	m := NewMapper(0)
	for _, r := range "fp2zx+-vq" {
		m.HandleKey(tcell.KeyRune, r, tcell.ModNone, t0)
	}
	m.HandleKey(tcell.KeyTab, 0, tcell.ModNone, t0)
	m.HandleKey(tcell.KeyEscape, 0, tcell.ModNone, t0)

	f := m.Frame(t0)
	require.Len(t, f.Events, 11)
	assert.Equal(t, Event{Action: ActionFire, Slot: "primary"}, f.Events[0])
	assert.Equal(t, ActionTogglePause, f.Events[1].Action)
	assert.Equal(t, Event{Action: ActionPreset, Preset: 1}, f.Events[2])
	assert.Equal(t, Event{Action: ActionZoom, Delta: -ZoomStep}, f.Events[3])
	assert.Equal(t, Event{Action: ActionZoom, Delta: ZoomStep}, f.Events[4])
	assert.Equal(t, Event{Action: ActionAdjustFPS, Delta: FPSStep}, f.Events[5])
	assert.Equal(t, Event{Action: ActionAdjustFPS, Delta: -FPSStep}, f.Events[6])
	assert.Equal(t, ActionToggleVSync, f.Events[7].Action)
	assert.Equal(t, ActionQuit, f.Events[8].Action)
	assert.Equal(t, ActionToggleLock, f.Events[9].Action)
	assert.Equal(t, ActionQuit, f.Events[10].Action)

	assert.Empty(t, m.Frame(t0).Events, "events drain once")
}

func TestMapper_MouseDeltaInPixels(t *testing.T) {
	m := NewMapper(0)
	m.HandleMouse(10, 5) // anchor
	m.HandleMouse(12, 4)
	m.HandleMouse(13, 4)

	f := m.Frame(t0)
	assert.Equal(t, 3.0*PixelsPerCell, f.MouseDX)
	assert.Equal(t, -1.0*PixelsPerCell, f.MouseDY)

	f = m.Frame(t0)
	assert.Zero(t, f.MouseDX)
	assert.Zero(t, f.MouseDY)
}

func TestStatic_ReplaysAxesOnly(t *testing.T) {
	s := &Static{Frame: Frame{
		Ship:    Axes{Forward: true},
		MouseDX: 4,
		Events:  []Event{{Action: ActionFire}},
	}}
	f := s.Poll()
	assert.True(t, f.Ship.Forward)
	assert.Len(t, f.Events, 1)
	assert.Equal(t, 4.0, f.MouseDX)

	f = s.Poll()
	assert.True(t, f.Ship.Forward)
	assert.Empty(t, f.Events)
	assert.Zero(t, f.MouseDX)
}

func TestActionNames(t *testing.T) {
	assert.Equal(t, "toggle_lock", ActionToggleLock.String())
	assert.Equal(t, "unknown", Action(99).String())
}

func TestTerminal_ReadsSimulationScreen(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()

	term := NewTerminal(screen, time.Second)
	defer term.Close()

	screen.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
	screen.InjectKey(tcell.KeyTab, 0, tcell.ModNone)

	var got Frame
	require.Eventually(t, func() bool {
		f := term.Poll()
		if f.Ship.Forward {
			got.Ship = f.Ship
		}
		got.Events = append(got.Events, f.Events...)
		return got.Ship.Forward && len(got.Events) > 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, ActionToggleLock, got.Events[0].Action)
}

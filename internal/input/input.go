// Package input defines what the simulation reads from the player each tick
// and maps terminal key and mouse events onto it.
package input

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

const (
	// PixelsPerCell converts terminal mouse motion to pixel deltas.
	PixelsPerCell = 8

	// Terminals report presses, never releases. A key counts as held until
	// no repeat has arrived for this long.
	DefaultHoldWindow = 180 * time.Millisecond

	ZoomStep = 5.0
	FPSStep  = 5.0
)

// Action is a one-shot command.
type Action int

const (
	ActionFire Action = iota
	ActionToggleLock
	ActionPreset
	ActionZoom
	ActionToggleVSync
	ActionAdjustFPS
	ActionTogglePause
	ActionQuit
)

var actionNames = [...]string{"fire", "toggle_lock", "preset", "zoom", "toggle_vsync", "adjust_fps", "toggle_pause", "quit"}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Event is one one-shot command. Preset is the 0-based preset index for
// ActionPreset; Delta is the step for ActionZoom and ActionAdjustFPS.
type Event struct {
	Action Action
	Preset int
	Delta  float64
	Slot   string
}

// Axes are held movement keys.
type Axes struct {
	Forward, Back bool
	Left, Right   bool
	Up, Down      bool
}

// Any reports whether any axis key is held.
func (a Axes) Any() bool {
	return a.Forward || a.Back || a.Left || a.Right || a.Up || a.Down
}

// Frame is everything the player did since the previous Poll.
type Frame struct {
	Ship   Axes // player ship thrust
	Camera Axes // free camera

	Sprint, Slow bool

	MouseDX, MouseDY float64 // pixels
	Events           []Event
}

// Source is the input collaborator the host polls once per frame.
type Source interface {
	Poll() Frame
}

type key int

const (
	keyShipForward key = iota
	keyShipBack
	keyShipLeft
	keyShipRight
	keyShipUp
	keyShipDown
	keyCamForward
	keyCamBack
	keyCamLeft
	keyCamRight
	keyCamUp
	keyCamDown
	keySprint
	keySlow
	numKeys
)

// Mapper turns key and mouse events into Frames. It is pure bookkeeping and
// can be fed from any event source.
type Mapper struct {
	hold time.Duration
	seen [numKeys]time.Time

	mouseX, mouseY int
	haveMouse      bool
	dx, dy         float64

	events []Event
}

func NewMapper(hold time.Duration) *Mapper {
	if hold <= 0 {
		hold = DefaultHoldWindow
	}
	return &Mapper{hold: hold}
}

// HandleKey records one key press at now.
func (m *Mapper) HandleKey(k tcell.Key, r rune, mod tcell.ModMask, now time.Time) {
	if mod&tcell.ModShift != 0 {
		m.press(keySprint, now)
	}
	if mod&tcell.ModCtrl != 0 && k != tcell.KeyRune {
		m.press(keySlow, now)
	}

	switch k {
	case tcell.KeyUp:
		m.press(keyCamForward, now)
	case tcell.KeyDown:
		m.press(keyCamBack, now)
	case tcell.KeyLeft:
		m.press(keyCamLeft, now)
	case tcell.KeyRight:
		m.press(keyCamRight, now)
	case tcell.KeyPgUp:
		m.press(keyCamUp, now)
	case tcell.KeyPgDn:
		m.press(keyCamDown, now)
	case tcell.KeyTab:
		m.emit(Event{Action: ActionToggleLock})
	case tcell.KeyEscape, tcell.KeyCtrlC:
		m.emit(Event{Action: ActionQuit})
	case tcell.KeyRune:
		m.handleRune(r, now)
	}
}

func (m *Mapper) handleRune(r rune, now time.Time) {
	// 大寫字母視為按住 Shift
	if r >= 'A' && r <= 'Z' {
		m.press(keySprint, now)
		r += 'a' - 'A'
	}
	switch r {
	case 'w':
		m.press(keyShipForward, now)
	case 's':
		m.press(keyShipBack, now)
	case 'a':
		m.press(keyShipLeft, now)
	case 'd':
		m.press(keyShipRight, now)
	case ' ':
		m.press(keyShipUp, now)
	case 'c':
		m.press(keyShipDown, now)
	case 'f':
		m.emit(Event{Action: ActionFire, Slot: "primary"})
	case 'p':
		m.emit(Event{Action: ActionTogglePause})
	case '1', '2', '3':
		m.emit(Event{Action: ActionPreset, Preset: int(r - '1')})
	case 'z':
		m.emit(Event{Action: ActionZoom, Delta: -ZoomStep})
	case 'x':
		m.emit(Event{Action: ActionZoom, Delta: ZoomStep})
	case 'v':
		m.emit(Event{Action: ActionToggleVSync})
	case '+', '=':
		m.emit(Event{Action: ActionAdjustFPS, Delta: FPSStep})
	case '-', '_':
		m.emit(Event{Action: ActionAdjustFPS, Delta: -FPSStep})
	case 'q':
		m.emit(Event{Action: ActionQuit})
	}
}

// HandleMouse records the pointer position in cells. The first sample only
// anchors the pointer.
func (m *Mapper) HandleMouse(x, y int) {
	if m.haveMouse {
		m.dx += float64(x-m.mouseX) * PixelsPerCell
		m.dy += float64(y-m.mouseY) * PixelsPerCell
	}
	m.mouseX, m.mouseY = x, y
	m.haveMouse = true
}

func (m *Mapper) press(k key, now time.Time) { m.seen[k] = now }

func (m *Mapper) emit(ev Event) { m.events = append(m.events, ev) }

func (m *Mapper) held(k key, now time.Time) bool {
	t := m.seen[k]
	return !t.IsZero() && now.Sub(t) < m.hold
}

// Frame collects held keys at now and drains the mouse delta and events.
func (m *Mapper) Frame(now time.Time) Frame {
	f := Frame{
		Ship: Axes{
			Forward: m.held(keyShipForward, now),
			Back:    m.held(keyShipBack, now),
			Left:    m.held(keyShipLeft, now),
			Right:   m.held(keyShipRight, now),
			Up:      m.held(keyShipUp, now),
			Down:    m.held(keyShipDown, now),
		},
		Camera: Axes{
			Forward: m.held(keyCamForward, now),
			Back:    m.held(keyCamBack, now),
			Left:    m.held(keyCamLeft, now),
			Right:   m.held(keyCamRight, now),
			Up:      m.held(keyCamUp, now),
			Down:    m.held(keyCamDown, now),
		},
		Sprint:  m.held(keySprint, now),
		Slow:    m.held(keySlow, now),
		MouseDX: m.dx,
		MouseDY: m.dy,
	}
	if len(m.events) > 0 {
		f.Events = m.events
		m.events = nil
	}
	m.dx, m.dy = 0, 0
	return f
}

// Static is a Source that replays the same frame; headless runs and tests
// use it.
type Static struct {
	Frame Frame
}

func (s *Static) Poll() Frame {
	f := s.Frame
	s.Frame.Events = nil
	s.Frame.MouseDX, s.Frame.MouseDY = 0, 0
	return f
}

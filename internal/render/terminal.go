package render

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/novaengine/nova/internal/feedback"
)

// Terminal cells are roughly twice as tall as they are wide.
const cellAspect = 0.5

var (
	styleDefault    = tcell.StyleDefault
	stylePlayer     = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleHostile    = tcell.StyleDefault.Foreground(tcell.ColorOrangeRed)
	styleFriendly   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleProjectile = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleObstacle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus     = tcell.StyleDefault.Reverse(true)

	severityStyles = [...]tcell.Style{
		feedback.Info:      tcell.StyleDefault.Foreground(tcell.ColorSteelBlue),
		feedback.Warning:   tcell.StyleDefault.Foreground(tcell.ColorYellow),
		feedback.Critical:  tcell.StyleDefault.Foreground(tcell.ColorRed),
		feedback.Emergency: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true).Blink(true),
	}
)

// Terminal draws the scene as glyphs on a tcell screen.
type Terminal struct {
	screen tcell.Screen
	alerts int // HUD rows reserved for alerts

	scratch []placed
}

type placed struct {
	x, y  int
	depth float64
	glyph rune
	style tcell.Style
}

// NewTerminal draws on screen, which must already be initialised.
func NewTerminal(screen tcell.Screen, alertRows int) *Terminal {
	if alertRows < 0 {
		alertRows = 0
	}
	screen.HideCursor()
	return &Terminal{screen: screen, alerts: alertRows}
}

func (t *Terminal) Render(s *Scene) error {
	t.screen.Clear()
	w, h := t.screen.Size()
	viewH := h - 1 - t.alerts
	if w <= 0 || viewH <= 1 {
		t.screen.Show()
		return nil
	}

	if s.Camera != nil {
		t.drawWorld(s, w, viewH)
	}
	t.drawStatus(s.Status, w, viewH)
	t.drawAlerts(s.Alerts, w, viewH+1)
	t.screen.Show()
	return nil
}

func (t *Terminal) drawWorld(s *Scene, w, viewH int) {
	aspect := float64(w) / float64(viewH) * cellAspect
	view := s.Camera.ViewMatrix()
	proj := s.Camera.ProjectionMatrix(aspect, NearPlane, FarPlane)

	t.scratch = t.scratch[:0]
	for i := range s.Entities {
		e := &s.Entities[i]
		ndc, ok := Project(view, proj, mgl64.Vec3{e.X, e.Y, e.Z})
		if !ok {
			continue
		}
		glyph, style := look(e)
		t.scratch = append(t.scratch, placed{
			x:     int((ndc.X() + 1) / 2 * float64(w-1)),
			y:     int((1 - ndc.Y()) / 2 * float64(viewH-1)),
			depth: ndc.Z(),
			glyph: glyph,
			style: style,
		})
	}
	// 遠的先畫，近的覆蓋
	sort.Slice(t.scratch, func(i, j int) bool { return t.scratch[i].depth > t.scratch[j].depth })
	for _, p := range t.scratch {
		t.screen.SetContent(p.x, p.y, p.glyph, nil, p.style)
	}
}

func look(e *Entity) (rune, tcell.Style) {
	switch e.Kind {
	case KindProjectile:
		return '·', styleProjectile
	case KindObstacle:
		return '#', styleObstacle
	}
	if e.Player {
		return '@', stylePlayer
	}
	if e.Faction == 1 {
		return 'A', styleFriendly
	}
	return 'V', styleHostile
}

func (t *Terminal) drawStatus(st Status, w, row int) {
	vsync := "off"
	if st.VSync {
		vsync = "on"
	}
	mode := "free"
	if st.Locked {
		mode = "lock"
	}
	line := fmt.Sprintf(" fps %5.1f/%3.0f vsync %s | cam %s | shield %s | pwr S%.0f W%.0f T%.0f MW | ammo %s | shots %d ",
		st.FPS, st.TargetFPS, vsync, mode, percent(st.Shield),
		st.ShieldMW, st.WeaponMW, st.ThrusterMW, ammo(st.Ammo), st.Projectiles)
	if st.Overloaded {
		line += "| OVERLOAD "
	}
	if st.Paused {
		line += "| PAUSED "
	}
	for x := 0; x < w; x++ {
		t.screen.SetContent(x, row, ' ', nil, styleStatus)
	}
	putString(t.screen, 0, row, w, line, styleStatus)
}

func percent(p float64) string {
	if p < 0 {
		return "--"
	}
	return fmt.Sprintf("%3.0f%%", p)
}

func ammo(n int) string {
	if n < 0 {
		return "inf"
	}
	return fmt.Sprintf("%d", n)
}

func (t *Terminal) drawAlerts(alerts []feedback.Alert, w, top int) {
	// 最新的在最上面
	row := top
	for i := len(alerts) - 1; i >= 0 && row < top+t.alerts; i-- {
		a := alerts[i]
		text := a.Text
		if a.Count > 1 {
			text = fmt.Sprintf("%s (x%d)", text, a.Count)
		}
		style := styleDefault
		if int(a.Severity) >= 0 && int(a.Severity) < len(severityStyles) {
			style = severityStyles[a.Severity]
		}
		putString(t.screen, 1, row, w-1, text, style)
		row++
	}
}

func putString(s tcell.Screen, x, y, maxW int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= maxW {
			return
		}
		s.SetContent(x+col, y, r, nil, style)
		col++
	}
}

package render

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaengine/nova/internal/camera"
	"github.com/novaengine/nova/internal/feedback"
)

// eye at the origin looking down +Z
func forwardCamera() *camera.Camera {
	cam := camera.New()
	cam.SetOrientation(0, 0)
	return cam
}

func TestProject_CentreAndBehind(t *testing.T) {
	cam := forwardCamera()
	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(1, NearPlane, FarPlane)

	ndc, ok := Project(view, proj, mgl64.Vec3{0, 0, 10})
	require.True(t, ok)
	assert.InDelta(t, 0, ndc.X(), 1e-9)
	assert.InDelta(t, 0, ndc.Y(), 1e-9)

	_, ok = Project(view, proj, mgl64.Vec3{0, 0, -10})
	assert.False(t, ok, "behind the eye")

	_, ok = Project(view, proj, mgl64.Vec3{100, 0, 10})
	assert.False(t, ok, "outside the frustum")
}

func TestProject_RightIsPositiveX(t *testing.T) {
	cam := forwardCamera()
	_, right, _ := cam.Basis(true)
	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(1, NearPlane, FarPlane)

	p := mgl64.Vec3{0, 0, 10}.Add(right.Mul(2))
	ndc, ok := Project(view, proj, p)
	require.True(t, ok)
	assert.Greater(t, ndc.X(), 0.0)
}

func TestDiscard_CountsVisible(t *testing.T) {
	d := &Discard{}
	s := &Scene{
		Camera: forwardCamera(),
		Entities: []Entity{
			{Kind: KindShip, Z: 10},
			{Kind: KindProjectile, Z: 20},
			{Kind: KindObstacle, Z: -5},
		},
	}
	require.NoError(t, d.Render(s))
	require.NoError(t, d.Render(&Scene{}))
	assert.Equal(t, uint64(2), d.Frames)
	assert.Equal(t, 2, d.Visible)
}

func screenText(s tcell.SimulationScreen) []string {
	cells, w, h := s.GetContents()
	rows := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(c.Runes[0])
		}
		rows[y] = b.String()
	}
	return rows
}

func TestTerminal_DrawsSceneAndHUD(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(80, 24)

	r := NewTerminal(screen, 3)
	s := &Scene{
		Camera: forwardCamera(),
		Entities: []Entity{
			{Kind: KindShip, Player: true, Z: 10, Shield: 100},
			{Kind: KindShip, Faction: 2, X: 3, Z: 30, Shield: -1},
			{Kind: KindObstacle, Z: -10},
		},
		Alerts: []feedback.Alert{
			{Severity: feedback.Warning, Text: "Low shields: 20%"},
			{Severity: feedback.Critical, Text: "Shields depleted", Count: 2},
		},
		Status: Status{FPS: 59.9, TargetFPS: 60, VSync: true, Shield: 42, Ammo: -1, Paused: true},
	}
	require.NoError(t, r.Render(s))

	rows := screenText(screen)
	all := strings.Join(rows, "\n")
	assert.Contains(t, all, "@")
	assert.Contains(t, all, "V")
	assert.NotContains(t, all, "#", "obstacle behind the camera is culled")

	status := rows[24-1-3]
	assert.Contains(t, status, "vsync on")
	assert.Contains(t, status, "shield  42%")
	assert.Contains(t, status, "ammo inf")
	assert.Contains(t, status, "PAUSED")

	assert.Contains(t, rows[21], "Shields depleted (x2)", "newest alert first")
	assert.Contains(t, rows[22], "Low shields: 20%")
}

func TestTerminal_TinyScreen(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(10, 2)

	r := NewTerminal(screen, 4)
	assert.NoError(t, r.Render(&Scene{Camera: forwardCamera()}))
}

package camera

// Preset is a stored camera pose. Fov is in degrees.
type Preset struct {
	Name       string
	X, Y, Z    float64
	Pitch, Yaw float64
	Fov        float64
}

var defaultPresets = [...]Preset{
	{Name: "orbit", X: -8, Y: 0, Z: 6, Pitch: -0.1, Yaw: 0, Fov: 60},
	{Name: "top-down", X: 0, Y: -12, Z: 18, Pitch: -1.2, Yaw: 0, Fov: 75},
	{Name: "cinematic", X: 15, Y: 5, Z: 6, Pitch: -0.25, Yaw: -1.2, Fov: 55},
}

// DefaultPresets returns a copy of the built-in presets.
func DefaultPresets() []Preset {
	out := make([]Preset, len(defaultPresets))
	copy(out, defaultPresets[:])
	return out
}

// Apply sets pose and zoom on cam.
func (p Preset) Apply(cam *Camera) {
	cam.SetPosition(p.X, p.Y, p.Z)
	cam.SetOrientation(p.Pitch, p.Yaw)
	cam.SetZoom(p.Fov)
	cam.SetTargetZoom(p.Fov)
}

// ApplyPreset jumps the camera to p, forgets the follow history and skips
// the next update so the camera is not pulled back toward the old target.
func (c *Controller) ApplyPreset(p Preset) {
	p.Apply(c.cam)
	c.Reset()
	c.SuppressNextUpdate()
}

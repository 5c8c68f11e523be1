package camera

import "math"

const (
	lookSensitivity = 0.004 // rad/px
	lookAccelAbove  = 5.0   // px
	lookAccelGain   = 0.02
	lookMaxDelta    = 0.5
	lookDecay       = 0.96
	lookMinPixels   = 1.0
)

// MouseLook turns raw mouse deltas into the per-tick yaw/pitch offsets the
// follow camera consumes while locked. Outside lock the offsets decay.
type MouseLook struct {
	Yaw, Pitch float64
}

// Sample conditions one tick of mouse motion.
func (m *MouseLook) Sample(dx, dy float64, locked bool) {
	if !locked {
		m.Yaw *= lookDecay
		m.Pitch *= lookDecay
		return
	}
	if math.Abs(dx) <= lookMinPixels && math.Abs(dy) <= lookMinPixels {
		m.Yaw, m.Pitch = 0, 0
		return
	}
	accel := 1.0
	if speed := math.Hypot(dx, dy); speed > lookAccelAbove {
		accel += (speed - lookAccelAbove) * lookAccelGain
	}
	m.Yaw = clamp(dx*lookSensitivity*accel, -lookMaxDelta, lookMaxDelta)
	m.Pitch = clamp(-dy*lookSensitivity*accel, -lookMaxDelta, lookMaxDelta)
}

func (m *MouseLook) Reset() { m.Yaw, m.Pitch = 0, 0 }

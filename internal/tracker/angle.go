package tracker

import (
	"math"

	"github.com/grindsens/repcoach/internal/detector"
)

// Angle returns the planar angle ABC in degrees with the vertex at b.
// Only x and y are used. The result is in [0, 180].
func Angle(a, b, c detector.Landmark) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle
}

// JointAngle returns a signal that measures the angle at joint b.
func JointAngle(a, b, c int) func(detector.Pose) float64 {
	return func(p detector.Pose) float64 {
		return Angle(p[a], p[b], p[c])
	}
}

// Package detector provides pose detection interfaces and the body landmark taxonomy.
package detector

import (
	"encoding/json"
	"math"
)

// Pose landmark indices following the MediaPipe pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is a single tracked body joint in normalized camera coordinates.
// Visibility is nil when the detector attached no confidence score.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// Pose is one frame of landmarks indexed by the constants above.
type Pose []Landmark

// Missing returns the placeholder used for a joint the detector did not report.
func Missing() Landmark {
	nan := math.NaN()
	return Landmark{X: nan, Y: nan, Z: nan}
}

// Visible returns a landmark with an attached visibility score.
func Visible(x, y, z, visibility float64) Landmark {
	return Landmark{X: x, Y: y, Z: z, Visibility: &visibility}
}

// Finite reports whether all coordinates are finite numbers.
func (l Landmark) Finite() bool {
	for _, v := range [3]float64{l.X, l.Y, l.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes a missing landmark as null.
func (l Landmark) MarshalJSON() ([]byte, error) {
	if !l.Finite() {
		return []byte("null"), nil
	}
	type plain Landmark
	return json.Marshal(plain(l))
}

// UnmarshalJSON decodes null as a missing landmark.
func (l *Landmark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Missing()
		return nil
	}
	type plain Landmark
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Landmark(p)
	return nil
}

// Has reports whether the pose carries a usable landmark at index i.
func (p Pose) Has(i int) bool {
	return i >= 0 && i < len(p) && p[i].Finite()
}

// Clone returns a deep copy of the pose.
func (p Pose) Clone() Pose {
	if p == nil {
		return nil
	}
	out := make(Pose, len(p))
	for i, l := range p {
		out[i] = l
		if l.Visibility != nil {
			v := *l.Visibility
			out[i].Visibility = &v
		}
	}
	return out
}

// Without returns a copy of the pose with the given joints marked missing.
func (p Pose) Without(joints ...int) Pose {
	out := p.Clone()
	for _, j := range joints {
		if j >= 0 && j < len(out) {
			out[j] = Missing()
		}
	}
	return out
}

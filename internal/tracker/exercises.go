package tracker

import (
	"fmt"
	"math"

	"github.com/grindsens/repcoach/internal/detector"
)

// Thresholds holds the tunable constants of the built-in exercises.
// The defaults are empirical and may need recalibration for other camera setups.
type Thresholds struct {
	MinVisibility float64 `yaml:"min_visibility"`
	CurlRest      float64 `yaml:"curl_rest"`
	CurlWork      float64 `yaml:"curl_work"`
	SquatRest     float64 `yaml:"squat_rest"`
	SquatWork     float64 `yaml:"squat_work"`
}

// DefaultThresholds returns the observed defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinVisibility: DefaultMinVisibility,
		CurlRest:      160,
		CurlWork:      40,
		SquatRest:     160,
		SquatWork:     100,
	}
}

// Validate checks that each band leaves a dead zone between its thresholds.
func (t Thresholds) Validate() error {
	if t.MinVisibility < 0 || t.MinVisibility >= 1 {
		return fmt.Errorf("min_visibility must be in [0, 1), got %v", t.MinVisibility)
	}
	if t.CurlWork >= t.CurlRest {
		return fmt.Errorf("curl_work (%v) must be below curl_rest (%v)", t.CurlWork, t.CurlRest)
	}
	if t.SquatWork >= t.SquatRest {
		return fmt.Errorf("squat_work (%v) must be below squat_rest (%v)", t.SquatWork, t.SquatRest)
	}
	for _, v := range []float64{t.CurlRest, t.CurlWork, t.SquatRest, t.SquatWork} {
		if v < 0 || v > 180 {
			return fmt.Errorf("angle threshold %v out of range [0, 180]", v)
		}
	}
	return nil
}

// Curl tracks the left elbow angle. The arm extended is down, curled is up.
func Curl(t Thresholds) *Band {
	return curl("bicep curl", t, detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist)
}

// RightCurl tracks the right elbow angle with the curl thresholds.
func RightCurl(t Thresholds) *Band {
	return curl("right bicep curl", t, detector.RightShoulder, detector.RightElbow, detector.RightWrist)
}

func curl(name string, t Thresholds, shoulder, elbow, wrist int) *Band {
	return &Band{
		Name:      name,
		Required:  []int{shoulder, elbow, wrist},
		Signal:    JointAngle(shoulder, elbow, wrist),
		RestAbove: t.CurlRest,
		WorkBelow: t.CurlWork,
		Rest:      StageDown,
		Work:      StageUp,
		Validator: Validator{MinVisibility: t.MinVisibility},
	}
}

// Squat tracks the left knee angle. Standing is up, the descent completes the rep.
func Squat(t Thresholds) *Band {
	return &Band{
		Name:      "squat",
		Required:  []int{detector.LeftHip, detector.LeftKnee, detector.LeftAnkle},
		Signal:    JointAngle(detector.LeftHip, detector.LeftKnee, detector.LeftAnkle),
		RestAbove: t.SquatRest,
		WorkBelow: t.SquatWork,
		Rest:      StageUp,
		Work:      StageDown,
		Validator: Validator{MinVisibility: t.MinVisibility},
	}
}

// ShoulderPress compares both index fingers with the nose height.
// Hands overhead is up; both hands back below the nose completes the rep.
func ShoulderPress(t Thresholds) *Band {
	return &Band{
		Name:      "shoulder press",
		Required:  []int{detector.RightIndex, detector.LeftIndex, detector.Nose},
		Signal:    HandsAbove(detector.Nose),
		RestAbove: 0,
		WorkBelow: 0,
		Rest:      StageUp,
		Work:      StageDown,
		Validator: Validator{MinVisibility: t.MinVisibility},
	}
}

// LateralRaise compares both index fingers with the right shoulder height.
// Hands at the sides is down; both hands raised past the shoulder completes the rep.
func LateralRaise(t Thresholds) *Band {
	above := HandsAbove(detector.RightShoulder)
	return &Band{
		Name:      "lateral raise",
		Required:  []int{detector.RightIndex, detector.LeftIndex, detector.RightShoulder},
		Signal:    func(p detector.Pose) float64 { return -above(p) },
		RestAbove: 0,
		WorkBelow: 0,
		Rest:      StageDown,
		Work:      StageUp,
		Validator: Validator{MinVisibility: t.MinVisibility},
	}
}

// HandsAbove returns a signal measuring how far both index fingers sit
// above the reference joint. Image y grows downward.
//
// The signal is positive when both hands are above the reference, negative
// when both are below, and zero when they disagree, so one hand crossing
// alone never moves the stage.
func HandsAbove(ref int) func(detector.Pose) float64 {
	return func(p detector.Pose) float64 {
		refY := p[ref].Y
		right, left := p[detector.RightIndex].Y, p[detector.LeftIndex].Y

		switch {
		case right < refY && left < refY:
			return refY - math.Max(right, left)
		case right > refY && left > refY:
			return refY - math.Min(right, left)
		default:
			return 0
		}
	}
}

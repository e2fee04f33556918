package tracker

import "github.com/grindsens/repcoach/internal/detector"

// DefaultMinVisibility is the visibility a joint must exceed to be trusted.
const DefaultMinVisibility = 0.5

// Validator gates classification on the presence and confidence of joints.
type Validator struct {
	MinVisibility float64
}

// Valid reports whether every joint is present, finite and, when a
// visibility score is attached, strictly above MinVisibility.
func (v Validator) Valid(pose detector.Pose, joints ...int) bool {
	for _, j := range joints {
		if !pose.Has(j) {
			return false
		}
		if vis := pose[j].Visibility; vis != nil && !(*vis > v.MinVisibility) {
			return false
		}
	}
	return true
}

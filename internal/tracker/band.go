package tracker

import (
	"math"

	"github.com/grindsens/repcoach/internal/detector"
)

// Band is a single hysteresis band over one scalar signal.
//
// A signal above RestAbove moves the stage to Rest. A signal below WorkBelow
// while in Rest moves the stage to Work and completes a rep. Values between
// the thresholds leave the stage alone.
type Band struct {
	Name      string
	Required  []int
	Signal    func(detector.Pose) float64
	RestAbove float64
	WorkBelow float64
	Rest      Stage
	Work      Stage
	Validator Validator
}

// Classify implements Tracker.
func (b *Band) Classify(pose detector.Pose, stage Stage) Result {
	if !b.Validator.Valid(pose, b.Required...) {
		return Result{Stage: stage, Skipped: true}
	}

	v := b.Signal(pose)
	if math.IsNaN(v) {
		return Result{Stage: stage, Skipped: true}
	}

	next := stage
	if v > b.RestAbove {
		next = b.Rest
	}
	if v < b.WorkBelow && next == b.Rest {
		return Result{Stage: b.Work, RepCompleted: true}
	}
	return Result{Stage: next}
}

// Joints implements Tracker.
func (b *Band) Joints() []int {
	out := make([]int, len(b.Required))
	copy(out, b.Required)
	return out
}

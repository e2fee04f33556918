// Package tracker classifies pose observations into exercise stages and
// detects completed repetitions.
package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/grindsens/repcoach/internal/detector"
)

// Stage is the half of a repetition cycle the tracked limb is in.
type Stage int

const (
	// StageNone is the initial stage before any valid observation.
	StageNone Stage = iota
	StageDown
	StageUp
)

// String returns the wire name of the stage. StageNone is the empty string.
func (s Stage) String() string {
	switch s {
	case StageDown:
		return "down"
	case StageUp:
		return "up"
	default:
		return ""
	}
}

// MarshalJSON encodes StageNone as null and the others by name.
func (s Stage) MarshalJSON() ([]byte, error) {
	if s == StageNone {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts null, "down" or "up".
func (s *Stage) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = StageNone
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStage(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStage converts a wire name back to a Stage.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "":
		return StageNone, nil
	case "down":
		return StageDown, nil
	case "up":
		return StageUp, nil
	default:
		return StageNone, fmt.Errorf("unknown stage %q", name)
	}
}

// Result is the outcome of classifying one frame.
type Result struct {
	Stage        Stage
	RepCompleted bool
	// Skipped is set when the frame failed validation and the stage was carried over.
	Skipped bool
}

// Tracker maps a pose and the current stage to the next stage.
// Implementations must be pure: the same inputs always give the same Result.
type Tracker interface {
	Classify(pose detector.Pose, stage Stage) Result
	Joints() []int
}

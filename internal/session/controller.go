// Package session turns per-frame classifications into rep and set events.
package session

import (
	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/detector"
	"github.com/grindsens/repcoach/internal/tracker"
)

// State is the lifecycle state of a Controller.
type State int

const (
	Idle State = iota
	Tracking
	// SetComplete is reported on the event that finishes a set. The controller
	// itself is already back in Tracking when Process returns.
	SetComplete
)

func (s State) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case SetComplete:
		return "set_complete"
	default:
		return "idle"
	}
}

// Event is what a Controller reports for one processed frame.
type Event struct {
	Kind         tracker.Kind
	State        State
	Stage        tracker.Stage
	Reps         int
	Target       int
	Sets         int
	RepCompleted bool
	SetCompleted bool
	Skipped      bool
}

// Snapshot is a read-only view of controller state.
type Snapshot struct {
	Kind   tracker.Kind  `json:"kind"`
	State  string        `json:"state"`
	Stage  tracker.Stage `json:"stage"`
	Reps   int           `json:"reps"`
	Target int           `json:"target"`
	Sets   int           `json:"sets"`
}

// Controller holds the rep state of one supervised exercise.
// It is not safe for concurrent use; frames must arrive in order from one goroutine.
type Controller struct {
	kind    tracker.Kind
	tracker tracker.Tracker
	state   State
	stage   tracker.Stage
	reps    int
	target  int
	sets    int
}

// NewController creates an idle controller for the given tracker.
func NewController(kind tracker.Kind, t tracker.Tracker) *Controller {
	return &Controller{kind: kind, tracker: t}
}

// Activate starts tracking with a fresh state and the given target.
func (c *Controller) Activate(target int) {
	if target <= 0 {
		target = DefaultTargetReps
	}
	c.state = Tracking
	c.stage = tracker.StageNone
	c.reps = 0
	c.sets = 0
	c.target = target

	log.WithFields(log.Fields{"kind": c.kind, "target": target}).Info("supervision activated")
}

// Deactivate discards all state and returns to Idle.
func (c *Controller) Deactivate() {
	if c.state == Idle {
		return
	}
	c.state = Idle
	c.stage = tracker.StageNone
	c.reps = 0
	c.sets = 0
	c.target = 0

	log.WithField("kind", c.kind).Info("supervision deactivated")
}

// Process classifies one frame. Invalid frames and frames received while
// idle leave the state untouched and are reported as skipped.
func (c *Controller) Process(pose detector.Pose) Event {
	if c.state == Idle {
		return c.event(true)
	}

	res := c.tracker.Classify(pose, c.stage)
	if res.Skipped {
		log.WithField("kind", c.kind).Debug("frame skipped")
		return c.event(true)
	}

	c.stage = res.Stage
	if !res.RepCompleted {
		return c.event(false)
	}

	c.reps++
	ev := c.event(false)
	ev.RepCompleted = true

	if c.reps < c.target {
		log.WithFields(log.Fields{"kind": c.kind, "reps": c.reps, "target": c.target}).Info("rep counted")
		return ev
	}

	c.sets++
	ev.State = SetComplete
	ev.SetCompleted = true
	ev.Sets = c.sets
	log.WithFields(log.Fields{"kind": c.kind, "reps": c.reps, "sets": c.sets}).Info("set completed")

	c.reps = 0
	c.stage = tracker.StageNone
	return ev
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Kind:   c.kind,
		State:  c.state.String(),
		Stage:  c.stage,
		Reps:   c.reps,
		Target: c.target,
		Sets:   c.sets,
	}
}

// Kind returns the exercise kind this controller tracks.
func (c *Controller) Kind() tracker.Kind {
	return c.kind
}

func (c *Controller) event(skipped bool) Event {
	return Event{
		Kind:    c.kind,
		State:   c.state,
		Stage:   c.stage,
		Reps:    c.reps,
		Target:  c.target,
		Sets:    c.sets,
		Skipped: skipped,
	}
}

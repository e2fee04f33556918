package session

import (
	"sync"

	"github.com/grindsens/repcoach/internal/detector"
	"github.com/grindsens/repcoach/internal/tracker"
)

// Supervisor owns one Controller per exercise kind and routes frames to the
// active one. Switching exercises deactivates the previous controller.
type Supervisor struct {
	mu            sync.Mutex
	registry      *tracker.Registry
	defaultTarget int
	controllers   map[tracker.Kind]*Controller
	active        *Controller
}

// NewSupervisor creates a Supervisor resolving names through registry.
func NewSupervisor(registry *tracker.Registry, defaultTarget int) *Supervisor {
	if defaultTarget <= 0 {
		defaultTarget = DefaultTargetReps
	}
	return &Supervisor{
		registry:      registry,
		defaultTarget: defaultTarget,
		controllers:   make(map[tracker.Kind]*Controller),
	}
}

// Activate starts supervising the named exercise. The target is resolved from
// repsText unless override is positive. Unsupported names return an error
// wrapping tracker.ErrUnsupported and leave the current session untouched.
func (s *Supervisor) Activate(name, repsText string, override int) (Snapshot, error) {
	kind, err := s.registry.Resolve(name)
	if err != nil {
		return Snapshot{}, err
	}
	t, err := s.registry.Tracker(kind)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Deactivate()
	}

	c, ok := s.controllers[kind]
	if !ok {
		c = NewController(kind, t)
		s.controllers[kind] = c
	}
	c.tracker = t
	c.Activate(ResolveTarget(repsText, override, s.defaultTarget))
	s.active = c

	return c.Snapshot(), nil
}

// Process feeds a frame to the active controller. It reports false when
// nothing is being supervised.
func (s *Supervisor) Process(pose detector.Pose) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return Event{}, false
	}
	return s.active.Process(pose), true
}

// Deactivate stops supervision and discards the active session.
func (s *Supervisor) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Deactivate()
		s.active = nil
	}
}

// Active returns the state of the active session, if any.
func (s *Supervisor) Active() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return Snapshot{}, false
	}
	return s.active.Snapshot(), true
}

// Snapshot returns the state of the controller for kind, if one was ever activated.
func (s *Supervisor) Snapshot(kind tracker.Kind) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.controllers[kind]
	if !ok {
		return Snapshot{}, false
	}
	return c.Snapshot(), true
}

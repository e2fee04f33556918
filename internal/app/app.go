// Package app runs the server-side camera pipeline that counts reps for one
// supervised exercise and records finished sets in today's workout log.
package app

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/capture"
	"github.com/grindsens/repcoach/internal/detector"
	"github.com/grindsens/repcoach/internal/metrics"
	"github.com/grindsens/repcoach/internal/session"
	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/tracker"
	"github.com/grindsens/repcoach/internal/workout"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nobody is in front of the camera.
	IdleFPS = 5
	// IdleTimeoutMs is how long without a detected pose before dropping back to IdleFPS.
	IdleTimeoutMs = 2000
)

// ErrNoExercise is returned by Start when nothing has been activated.
var ErrNoExercise = errors.New("no exercise selected")

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	Registry *tracker.Registry
	Metrics  *metrics.Manager
	Camera   capture.Options
	Detector detector.Config

	// Exercise and Reps select the tracker when no ExerciseID is given.
	Exercise          string
	ExerciseID        string
	Reps              string
	DefaultTargetReps int
}

// App is the main application that orchestrates pose detection and rep counting.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	supervisor *session.Supervisor
	recorder   *workout.Recorder

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	entry     *store.LoggedExercise
	last      Update
	jpeg      []byte
	listeners []func(Update)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Registry == nil {
		config.Registry = tracker.NewRegistry(tracker.DefaultThresholds())
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewTestManager()
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.Camera),
		supervisor: session.NewSupervisor(config.Registry, config.DefaultTargetReps),
		enabled:    true,
	}
	if config.Store != nil {
		a.recorder = workout.NewRecorder(config.Store)
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.Info("using MediaPipe pose detection")
	} else {
		log.WithError(err).Warn("MediaPipe not available, using mock detector")
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled toggles supervision. Disabling discards the active session;
// enabling activates the configured exercise again. Frames are still read
// while disabled so the stream keeps running.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if !enabled {
		a.Deactivate()
	} else if _, ok := a.supervisor.Active(); !ok {
		if err := a.activateConfigured(); err != nil && !errors.Is(err, ErrNoExercise) {
			log.WithError(err).Error("failed to activate exercise")
		}
	}
	log.WithField("enabled", enabled).Info("supervision toggled")
}

// IsEnabled returns whether rep counting is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// AddListener registers fn to receive every pipeline update. Listeners are
// called from the pipeline goroutine and must not block.
func (a *App) AddListener(fn func(Update)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Activate starts counting reps for a named exercise that is not bound to
// the workout log.
func (a *App) Activate(name, repsText string, override int) (session.Snapshot, error) {
	snap, err := a.supervisor.Activate(name, repsText, override)
	if err != nil {
		return session.Snapshot{}, err
	}

	a.mu.Lock()
	a.entry = nil
	a.mu.Unlock()
	return snap, nil
}

// ActivateExercise starts counting reps for a stored exercise. Finished sets
// are recorded against its entry in today's log.
func (a *App) ActivateExercise(exerciseID string) (session.Snapshot, workout.Progress, error) {
	if a.recorder == nil {
		return session.Snapshot{}, workout.Progress{}, errors.New("no store configured")
	}

	ex, progress, err := a.recorder.Begin(exerciseID)
	if err != nil {
		return session.Snapshot{}, workout.Progress{}, err
	}

	snap, err := a.supervisor.Activate(ex.Name, ex.RepsOrDuration, 0)
	if err != nil {
		return session.Snapshot{}, progress, err
	}

	a.mu.Lock()
	a.entry = progress.Entry
	a.mu.Unlock()
	return snap, progress, nil
}

// Deactivate stops counting and forgets the current set.
func (a *App) Deactivate() {
	a.supervisor.Deactivate()

	a.mu.Lock()
	a.entry = nil
	a.mu.Unlock()
}

// Active returns the state of the supervised exercise, if any.
func (a *App) Active() (session.Snapshot, bool) {
	return a.supervisor.Active()
}

// Last returns the most recent update sent to listeners.
func (a *App) Last() Update {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// LatestJPEG returns the most recent camera frame as JPEG.
func (a *App) LatestJPEG() ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.jpeg, a.jpeg != nil
}

// Start activates the configured exercise when none is active yet, opens the
// camera and begins the detection pipeline.
func (a *App) Start() error {
	if _, ok := a.supervisor.Active(); !ok {
		if err := a.activateConfigured(); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Info("detection pipeline started")
	return nil
}

func (a *App) activateConfigured() error {
	switch {
	case a.config.ExerciseID != "":
		_, _, err := a.ActivateExercise(a.config.ExerciseID)
		return err
	case a.config.Exercise != "":
		_, err := a.Activate(a.config.Exercise, a.config.Reps, 0)
		return err
	default:
		return ErrNoExercise
	}
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.camera.Close(); err != nil {
		log.WithError(err).Warn("error closing camera")
	}

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.WithError(err).Warn("error closing detector")
		}
	}

	log.Info("detection pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Supervisor returns the session supervisor.
func (a *App) Supervisor() *session.Supervisor {
	return a.supervisor
}

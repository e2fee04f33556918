package app

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/grindsens/repcoach/internal/capture"
	"github.com/grindsens/repcoach/internal/detector"
	"github.com/grindsens/repcoach/internal/session"
	"github.com/grindsens/repcoach/internal/tracker"
	"github.com/grindsens/repcoach/internal/workout"
)

// Update types sent to listeners.
const (
	UpdateFrame    = "frame"
	UpdateRep      = "rep_update"
	UpdateSet      = "set_update"
	UpdateComplete = "exercise_complete"
)

// Update describes one processed frame.
type Update struct {
	Type             string        `json:"type"`
	Exercise         tracker.Kind  `json:"exercise"`
	State            string        `json:"state"`
	Stage            tracker.Stage `json:"stage"`
	Reps             int           `json:"reps"`
	Target           int           `json:"target"`
	Sets             int           `json:"sets"`
	RepCompleted     bool          `json:"rep_completed"`
	SetCompleted     bool          `json:"set_completed"`
	Skipped          bool          `json:"skipped"`
	SetsLogged       int           `json:"sets_logged,omitempty"`
	TargetSets       int           `json:"target_sets,omitempty"`
	ExerciseComplete bool          `json:"exercise_complete"`
	Landmarks        detector.Pose `json:"landmarks,omitempty"`
	Timestamp        int64         `json:"timestamp"`
}

// runPipeline is the main detection loop that processes frames from the camera.
// It switches between idle and active frame rates depending on whether a
// person is in view.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS)
// 2. Keep the frame as JPEG for the stream
// 3. Run pose detection and feed the first pose to the supervisor
// 4. On a detected pose, switch to the configured frame rate
// 5. After IdleTimeoutMs without a pose, switch back to idle mode
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	activeFPS := a.config.Camera.FPS
	if activeFPS <= 0 {
		activeFPS = capture.DefaultFPS
	}

	activeMode := false
	lastPoseTime := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(IdleFPS))
	defer ticker.Stop()

	camera := a.Camera()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := camera.ReadFrame()
			if err != nil {
				log.WithError(err).Debug("error reading frame")
				continue
			}

			a.storeJPEG(frame)

			d := a.Detector()
			if d == nil || !a.IsEnabled() {
				frame.Close()
				continue
			}

			poses, err := d.Detect(frame)
			frame.Close()
			if err != nil {
				log.WithError(err).Warn("error detecting pose")
				continue
			}

			var pose detector.Pose
			if len(poses) > 0 {
				pose = poses[0]
				lastPoseTime = time.Now()

				if !activeMode {
					activeMode = true
					camera.SetFPS(activeFPS)
					ticker.Reset(time.Second / time.Duration(activeFPS))
					log.Debug("switched to active mode")
				}
			} else if activeMode && time.Since(lastPoseTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
				activeMode = false
				camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / time.Duration(IdleFPS))
				log.Debug("switched to idle mode")
			}

			a.processPose(pose)
		}
	}
}

// processPose feeds one frame to the supervisor, records finished sets and
// notifies listeners. A nil pose means nobody was detected.
func (a *App) processPose(pose detector.Pose) (Update, bool) {
	ev, ok := a.supervisor.Process(pose)
	if !ok {
		return Update{}, false
	}

	a.config.Metrics.ObserveFrame(string(ev.Kind), ev.Skipped, ev.RepCompleted, ev.SetCompleted)

	u := updateFrom(ev)
	u.Landmarks = pose
	u.Timestamp = time.Now().UnixMilli()

	if ev.SetCompleted {
		a.recordSet(ev, &u)
	}

	a.mu.Lock()
	a.last = u
	listeners := append([]func(Update){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
	return u, true
}

func (a *App) recordSet(ev session.Event, u *Update) {
	a.mu.RLock()
	entry := a.entry
	a.mu.RUnlock()

	if entry == nil || a.recorder == nil {
		return
	}

	progress, err := a.recorder.SetCompleted(entry, ev.Reps, workout.SourceCamera)
	if err != nil {
		log.WithError(err).WithField("exercise", entry.ExerciseName).Error("failed to record set")
		return
	}

	u.SetsLogged = progress.Entry.SetsCompleted
	u.TargetSets = progress.TargetSets

	a.mu.Lock()
	a.entry = progress.Entry
	a.mu.Unlock()

	if progress.Complete {
		u.Type = UpdateComplete
		u.ExerciseComplete = true
		a.Deactivate()
		log.WithField("exercise", entry.ExerciseName).Info("exercise complete")
	}
}

func updateFrom(ev session.Event) Update {
	u := Update{
		Type:         UpdateFrame,
		Exercise:     ev.Kind,
		State:        ev.State.String(),
		Stage:        ev.Stage,
		Reps:         ev.Reps,
		Target:       ev.Target,
		Sets:         ev.Sets,
		RepCompleted: ev.RepCompleted,
		SetCompleted: ev.SetCompleted,
		Skipped:      ev.Skipped,
	}
	switch {
	case ev.SetCompleted:
		u.Type = UpdateSet
	case ev.RepCompleted:
		u.Type = UpdateRep
	}
	return u
}

func (a *App) storeJPEG(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	a.mu.Lock()
	a.jpeg = data
	a.mu.Unlock()
}

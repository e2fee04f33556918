package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/detector"
	"github.com/grindsens/repcoach/internal/metrics"
	"github.com/grindsens/repcoach/internal/session"
	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/tracker"
	"github.com/grindsens/repcoach/internal/workout"
)

// Supervision message types.
const (
	MsgConnectionEstablished = "connection_established"
	MsgInitialState          = "initial_state"
	MsgPoseLandmarks         = "pose_landmarks"
	MsgRepUpdate             = "rep_update"
	MsgSetUpdate             = "set_update"
	MsgExerciseComplete      = "exercise_complete"
	MsgError                 = "error"
)

// ErrCodeUnsupported marks errors sent for exercises without a tracker.
const ErrCodeUnsupported = "unsupported_exercise"

// SupervisionConfig holds the dependencies of SupervisionHandler.
type SupervisionConfig struct {
	Store             *store.Store
	Registry          *tracker.Registry
	Metrics           *metrics.Manager
	DefaultTargetReps int
}

// SupervisionHandler counts reps for one logged exercise from pose frames
// sent by the browser, one session per connection.
type SupervisionHandler struct {
	config   SupervisionConfig
	recorder *workout.Recorder
}

// NewSupervisionHandler creates a new SupervisionHandler.
func NewSupervisionHandler(config SupervisionConfig) *SupervisionHandler {
	if config.DefaultTargetReps <= 0 {
		config.DefaultTargetReps = session.DefaultTargetReps
	}
	return &SupervisionHandler{
		config:   config,
		recorder: workout.NewRecorder(config.Store),
	}
}

// clientMessage is a frame sent by the browser.
type clientMessage struct {
	Type         string        `json:"type"`
	Landmarks    detector.Pose `json:"landmarks"`
	ExerciseName string        `json:"exercise_name"`
}

// ServeHTTP handles WebSocket upgrade requests on /ws/supervision/{exerciseID}.
func (h *SupervisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "exerciseID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade error")
		return
	}
	defer conn.Close()

	h.config.Metrics.GaugeActiveSessions.Inc()
	defer h.config.Metrics.GaugeActiveSessions.Dec()

	s := &supervision{
		handler:    h,
		conn:       conn,
		id:         uuid.New().String(),
		exerciseID: exerciseID,
		logger:     log.WithField("exercise_id", exerciseID),
	}
	s.run()
}

// supervision is the state of one connection.
type supervision struct {
	handler    *SupervisionHandler
	conn       *websocket.Conn
	id         string
	exerciseID string
	logger     *log.Entry

	exercise   *store.Exercise
	progress   workout.Progress
	controller *session.Controller
	rejected   string
}

func (s *supervision) run() {
	s.logger = s.logger.WithField("session", s.id)
	s.logger.Info("supervision connected")
	defer s.logger.Info("supervision disconnected")

	if err := s.send(map[string]any{
		"type":       MsgConnectionEstablished,
		"message":    "Supervision connected!",
		"session_id": s.id,
	}); err != nil {
		return
	}

	if err := s.initialize(); err != nil {
		return
	}
	defer func() {
		if s.controller != nil {
			s.controller.Deactivate()
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WithError(err).Warn("supervision read error")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("", "Invalid message.")
			continue
		}
		if msg.Type != MsgPoseLandmarks || len(msg.Landmarks) == 0 {
			continue
		}

		if err := s.handlePose(msg); err != nil {
			return
		}
	}
}

// initialize loads the exercise and its entry in today's log and sends the
// initial state. Errors have already been reported to the client.
func (s *supervision) initialize() error {
	ex, progress, err := s.handler.recorder.Begin(s.exerciseID)
	if err != nil {
		s.logger.WithError(err).Warn("failed to initialize supervision")
		if errors.Is(err, store.ErrNotFound) {
			s.sendError("", "Exercise not found.")
		} else {
			s.sendError("", "Error initializing supervision state.")
		}
		return err
	}
	s.exercise = ex
	s.progress = progress

	// Exercises whose stored name has no tracker may still be resolved from
	// the name the client sends with its frames.
	s.activate(ex.Name)

	return s.send(map[string]any{
		"type":                   MsgInitialState,
		"current_sets_completed": progress.Entry.SetsCompleted,
		"target_sets":            progress.TargetSets,
		"exercise_name":          ex.Name,
	})
}

func (s *supervision) activate(name string) bool {
	kind, err := s.handler.config.Registry.Resolve(name)
	if err != nil {
		return false
	}
	t, err := s.handler.config.Registry.Tracker(kind)
	if err != nil {
		return false
	}

	s.controller = session.NewController(kind, t)
	s.controller.Activate(session.ResolveTarget(s.exercise.RepsOrDuration, 0, s.handler.config.DefaultTargetReps))
	s.logger = s.logger.WithField("kind", kind)
	return true
}

func (s *supervision) handlePose(msg clientMessage) error {
	if s.controller == nil {
		name := msg.ExerciseName
		if name == "" {
			name = s.exercise.Name
		}
		if !s.activate(name) {
			if name != s.rejected {
				s.rejected = name
				s.handler.config.Metrics.CounterUnsupported.Inc()
				return s.sendError(ErrCodeUnsupported, fmt.Sprintf("Exercise '%s' not supported for AI counting.", name))
			}
			return nil
		}
	}

	ev := s.controller.Process(msg.Landmarks)
	s.handler.config.Metrics.ObserveFrame(string(ev.Kind), ev.Skipped, ev.RepCompleted, ev.SetCompleted)

	if !ev.RepCompleted {
		return nil
	}

	if err := s.send(map[string]any{
		"type":                  MsgRepUpdate,
		"current_reps_this_set": ev.Reps,
		"stage":                 ev.Stage,
	}); err != nil {
		return err
	}

	if !ev.SetCompleted {
		return nil
	}

	progress, err := s.handler.recorder.SetCompleted(s.progress.Entry, ev.Reps, workout.SourceSupervision)
	if err != nil {
		s.logger.WithError(err).Error("failed to record set")
		return s.sendError("", "Failed to record set.")
	}
	s.progress = progress

	if err := s.send(map[string]any{
		"type":              MsgSetUpdate,
		"sets_completed":    progress.Entry.SetsCompleted,
		"total_target_sets": progress.TargetSets,
		"message":           fmt.Sprintf("Set %d complete!", progress.Entry.SetsCompleted),
	}); err != nil {
		return err
	}

	if progress.Complete {
		return s.send(map[string]any{
			"type":    MsgExerciseComplete,
			"message": "Exercise complete! Well done!",
		})
	}
	return nil
}

func (s *supervision) sendError(code, message string) error {
	msg := map[string]any{
		"type":    MsgError,
		"message": message,
	}
	if code != "" {
		msg["code"] = code
	}
	return s.send(msg)
}

func (s *supervision) send(msg map[string]any) error {
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.WithError(err).Debug("supervision write error")
		return err
	}
	return nil
}

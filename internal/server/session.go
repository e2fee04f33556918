package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grindsens/repcoach/internal/app"
	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/tracker"
)

// SessionHandler selects the exercise supervised by the camera pipeline.
type SessionHandler struct {
	app *app.App
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

// Routes returns the router for /api/session.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Post("/", h.activate)
	r.Delete("/", h.deactivate)
	return r
}

type activateRequest struct {
	ExerciseID string `json:"exercise_id"`
	Exercise   string `json:"exercise"`
	Reps       string `json:"reps"`
	Target     int    `json:"target"`
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.app.Active()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "session": snap})
}

// activate handles POST /api/session. A stored exercise_id binds finished
// sets to today's log; a bare exercise name only counts.
func (h *SessionHandler) activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	var (
		response = map[string]any{"active": true}
		err      error
	)
	switch {
	case req.ExerciseID != "":
		snap, progress, aerr := h.app.ActivateExercise(req.ExerciseID)
		response["session"], response["progress"], err = snap, progress, aerr
	case req.Exercise != "":
		snap, aerr := h.app.Activate(req.Exercise, req.Reps, req.Target)
		response["session"], err = snap, aerr
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id or exercise is required"})
		return
	}

	switch {
	case errors.Is(err, tracker.ErrUnsupported):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error(), "code": ErrCodeUnsupported})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Exercise not found"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, response)
	}
}

func (h *SessionHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.app.Deactivate()
	w.WriteHeader(http.StatusNoContent)
}

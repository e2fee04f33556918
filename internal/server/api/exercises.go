package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/tracker"
)

// ExerciseHandler handles HTTP requests for exercise resources.
type ExerciseHandler struct {
	store    *store.Store
	registry *tracker.Registry
}

// NewExerciseHandler creates a new ExerciseHandler with the given store.
// The registry marks which exercises can be counted automatically.
func NewExerciseHandler(s *store.Store, registry *tracker.Registry) *ExerciseHandler {
	return &ExerciseHandler{store: s, registry: registry}
}

// Routes returns the router for /api/exercises.
func (h *ExerciseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type exerciseRequest struct {
	Name           string `json:"exercise_name"`
	TargetMuscles  string `json:"target_muscles"`
	Sets           string `json:"sets"`
	RepsOrDuration string `json:"reps_or_duration"`
	RestPeriod     string `json:"rest_period"`
	Notes          string `json:"notes"`
}

type exerciseResponse struct {
	*store.Exercise
	Tracker tracker.Kind `json:"tracker,omitempty"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

func (h *ExerciseHandler) toResponse(e *store.Exercise) exerciseResponse {
	resp := exerciseResponse{Exercise: e}
	if h.registry != nil {
		if kind, err := h.registry.Resolve(e.Name); err == nil {
			resp.Tracker = kind
		}
	}
	return resp
}

// list handles GET /api/exercises and returns all exercises.
func (h *ExerciseHandler) list(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.store.Exercises().List()
	if err != nil {
		log.WithError(err).Error("failed to list exercises")
		writeError(w, http.StatusInternalServerError, "Failed to list exercises")
		return
	}

	response := listExercisesResponse{
		Exercises: make([]exerciseResponse, 0, len(exercises)),
	}
	for _, e := range exercises {
		response.Exercises = append(response.Exercises, h.toResponse(e))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/exercises/{id} and returns a single exercise.
func (h *ExerciseHandler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.Exercises().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(e))
}

// create handles POST /api/exercises and creates a new exercise.
func (h *ExerciseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Exercise name is required")
		return
	}

	e := &store.Exercise{
		Name:           strings.TrimSpace(req.Name),
		TargetMuscles:  req.TargetMuscles,
		Sets:           req.Sets,
		RepsOrDuration: req.RepsOrDuration,
		RestPeriod:     req.RestPeriod,
		Notes:          req.Notes,
	}

	if err := h.store.Exercises().Create(e); err != nil {
		log.WithError(err).Error("failed to create exercise")
		writeError(w, http.StatusInternalServerError, "Failed to create exercise")
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(e))
}

// update handles PUT /api/exercises/{id}. Empty fields keep their value.
func (h *ExerciseHandler) update(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.Exercises().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		e.Name = strings.TrimSpace(req.Name)
	}
	if req.TargetMuscles != "" {
		e.TargetMuscles = req.TargetMuscles
	}
	if req.Sets != "" {
		e.Sets = req.Sets
	}
	if req.RepsOrDuration != "" {
		e.RepsOrDuration = req.RepsOrDuration
	}
	if req.RestPeriod != "" {
		e.RestPeriod = req.RestPeriod
	}
	if req.Notes != "" {
		e.Notes = req.Notes
	}

	if err := h.store.Exercises().Update(e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update exercise")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(e))
}

// delete handles DELETE /api/exercises/{id} and removes an exercise.
func (h *ExerciseHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Exercises().Delete(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete exercise")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/workout"
)

// LogHandler handles HTTP requests for daily workout logs.
type LogHandler struct {
	store    *store.Store
	recorder *workout.Recorder
}

// NewLogHandler creates a new LogHandler with the given store.
func NewLogHandler(s *store.Store) *LogHandler {
	return &LogHandler{store: s, recorder: workout.NewRecorder(s)}
}

// Routes returns the router for /api/logs. The date segment accepts
// YYYY-MM-DD or "today".
func (h *LogHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{date}", h.get)
	r.Post("/{date}/exercises", h.addExercise)
	r.Delete("/{date}/exercises/{exerciseID}", h.removeExercise)
	r.Get("/{date}/exercises/{exerciseID}/sets", h.listSets)
	r.Post("/{date}/exercises/{exerciseID}/sets", h.recordSet)
	return r
}

type addExerciseRequest struct {
	ExerciseID string `json:"exercise_id"`
}

type recordSetRequest struct {
	Reps int `json:"reps"`
}

type entryResponse struct {
	*store.LoggedExercise
	TargetSetsCount int  `json:"target_sets_count"`
	Complete        bool `json:"complete"`
}

type logResponse struct {
	*store.DailyLog
	Entries []entryResponse `json:"entries"`
}

func toEntryResponse(e *store.LoggedExercise) entryResponse {
	target := workout.ParseTargetSets(e.TargetSets)
	return entryResponse{
		LoggedExercise:  e,
		TargetSetsCount: target,
		Complete:        e.SetsCompleted >= target,
	}
}

// date resolves the {date} parameter, reporting false after writing a 400.
func (h *LogHandler) date(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := chi.URLParam(r, "date")
	if date == "today" {
		return h.recorder.Today(), true
	}
	if _, err := time.Parse(store.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return "", false
	}
	return date, true
}

// entry loads the log entry addressed by {date} and {exerciseID}.
func (h *LogHandler) entry(w http.ResponseWriter, r *http.Request) (*store.LoggedExercise, bool) {
	date, ok := h.date(w, r)
	if !ok {
		return nil, false
	}

	daily, err := h.store.Logs().GetByDate(date)
	if err == nil {
		var e *store.LoggedExercise
		e, err = h.store.Logs().GetEntry(daily.ID, chi.URLParam(r, "exerciseID"))
		if err == nil {
			return e, true
		}
	}

	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Exercise not found in log")
	} else {
		writeError(w, http.StatusInternalServerError, "Failed to get log entry")
	}
	return nil, false
}

// get handles GET /api/logs/{date}.
func (h *LogHandler) get(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}

	daily, err := h.store.Logs().GetByDate(date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Workout log not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get workout log")
		return
	}

	entries, err := h.store.Logs().ListEntries(daily.ID)
	if err != nil {
		log.WithError(err).Error("failed to list log entries")
		writeError(w, http.StatusInternalServerError, "Failed to list log entries")
		return
	}

	response := logResponse{
		DailyLog: daily,
		Entries:  make([]entryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		response.Entries = append(response.Entries, toEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, response)
}

// addExercise handles POST /api/logs/{date}/exercises. The log is created on
// first use; adding an exercise twice returns the existing entry.
func (h *LogHandler) addExercise(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}

	var req addExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ExerciseID == "" {
		writeError(w, http.StatusBadRequest, "exercise_id is required")
		return
	}

	ex, err := h.store.Exercises().GetByID(req.ExerciseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}

	daily, err := h.store.Logs().GetOrCreate(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create workout log")
		return
	}

	entry, err := h.store.Logs().AddExercise(daily.ID, ex)
	if err != nil {
		log.WithError(err).Error("failed to add exercise to log")
		writeError(w, http.StatusInternalServerError, "Failed to add exercise to log")
		return
	}

	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

// removeExercise handles DELETE /api/logs/{date}/exercises/{exerciseID}.
func (h *LogHandler) removeExercise(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}

	if err := h.store.Logs().RemoveExercise(entry.LogID, entry.ExerciseID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove exercise from log")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listSets handles GET /api/logs/{date}/exercises/{exerciseID}/sets.
func (h *LogHandler) listSets(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}

	sets, err := h.store.Logs().ListSets(entry.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sets")
		return
	}
	if sets == nil {
		sets = []store.SetRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"sets": sets})
}

// recordSet handles POST /api/logs/{date}/exercises/{exerciseID}/sets and
// logs a set entered by hand.
func (h *LogHandler) recordSet(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}

	var req recordSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Reps < 0 {
		writeError(w, http.StatusBadRequest, "reps must not be negative")
		return
	}

	progress, err := h.recorder.SetCompleted(entry, req.Reps, workout.SourceManual)
	if err != nil {
		log.WithError(err).Error("failed to record set")
		writeError(w, http.StatusInternalServerError, "Failed to record set")
		return
	}

	writeJSON(w, http.StatusCreated, toEntryResponse(progress.Entry))
}

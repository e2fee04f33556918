package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/tracker"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func newTestRouter(s *store.Store) http.Handler {
	registry := tracker.NewRegistry(tracker.DefaultThresholds())

	r := chi.NewRouter()
	r.Mount("/api/exercises", NewExerciseHandler(s, registry).Routes())
	r.Mount("/api/logs", NewLogHandler(s).Routes())
	r.Method(http.MethodGet, "/api/trackers", NewTrackerHandler(registry))
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

type exerciseJSON struct {
	ID             string `json:"id"`
	Name           string `json:"exercise_name"`
	Sets           string `json:"sets"`
	RepsOrDuration string `json:"reps_or_duration"`
	Tracker        string `json:"tracker"`
}

func TestExerciseHandler_CRUD(t *testing.T) {
	s := newTestStore(t)
	h := newTestRouter(s)

	rec := doRequest(t, h, http.MethodPost, "/api/exercises", map[string]string{
		"exercise_name":    "Dumbbell Bicep Curl",
		"sets":             "3",
		"reps_or_duration": "10-12 reps",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	created := decode[exerciseJSON](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "curl", created.Tracker)

	rec = doRequest(t, h, http.MethodGet, "/api/exercises/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dumbbell Bicep Curl", decode[exerciseJSON](t, rec).Name)

	rec = doRequest(t, h, http.MethodPut, "/api/exercises/"+created.ID, map[string]string{"sets": "4"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[exerciseJSON](t, rec)
	assert.Equal(t, "4", updated.Sets)
	assert.Equal(t, "10-12 reps", updated.RepsOrDuration)

	rec = doRequest(t, h, http.MethodGet, "/api/exercises", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Exercises []exerciseJSON `json:"exercises"`
	}](t, rec)
	assert.Len(t, list.Exercises, 1)

	rec = doRequest(t, h, http.MethodDelete, "/api/exercises/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/exercises/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExerciseHandler_Errors(t *testing.T) {
	h := newTestRouter(newTestStore(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing name", http.MethodPost, "/api/exercises", map[string]string{"sets": "3"}, http.StatusBadRequest},
		{"get unknown", http.MethodGet, "/api/exercises/nope", nil, http.StatusNotFound},
		{"update unknown", http.MethodPut, "/api/exercises/nope", map[string]string{"sets": "3"}, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/exercises/nope", nil, http.StatusNotFound},
		{"method not allowed", http.MethodPatch, "/api/exercises", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestExerciseHandler_InvalidJSON(t *testing.T) {
	h := newTestRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/exercises", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON", decode[errorResponse](t, rec).Error)
}

func TestLogHandler_Flow(t *testing.T) {
	s := newTestStore(t)
	h := newTestRouter(s)

	ex := &store.Exercise{Name: "Goblet Squats", Sets: "2-3", RepsOrDuration: "8 reps"}
	require.NoError(t, s.Exercises().Create(ex))

	rec := doRequest(t, h, http.MethodGet, "/api/logs/2026-10-16", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/logs/2026-10-16/exercises", map[string]string{"exercise_id": ex.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[map[string]any](t, rec)
	assert.Equal(t, "pending", entry["completed_status"])
	assert.EqualValues(t, 3, entry["target_sets_count"])

	rec = doRequest(t, h, http.MethodPost, "/api/logs/2026-10-16/exercises/"+ex.ID+"/sets", map[string]int{"reps": 8})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry = decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, entry["actual_sets_completed"])
	assert.Equal(t, "partial", entry["completed_status"])
	assert.Equal(t, false, entry["complete"])

	rec = doRequest(t, h, http.MethodGet, "/api/logs/2026-10-16/exercises/"+ex.ID+"/sets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sets := decode[struct {
		Sets []store.SetRecord `json:"sets"`
	}](t, rec)
	require.Len(t, sets.Sets, 1)
	assert.Equal(t, "manual", sets.Sets[0].Source)
	assert.Equal(t, 8, sets.Sets[0].Reps)

	rec = doRequest(t, h, http.MethodGet, "/api/logs/2026-10-16", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	daily := decode[struct {
		Date    string           `json:"date"`
		Entries []map[string]any `json:"entries"`
	}](t, rec)
	assert.Equal(t, "2026-10-16", daily.Date)
	require.Len(t, daily.Entries, 1)
	assert.Equal(t, "Goblet Squats", daily.Entries[0]["exercise_name"])

	rec = doRequest(t, h, http.MethodDelete, "/api/logs/2026-10-16/exercises/"+ex.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/logs/2026-10-16/exercises/"+ex.ID+"/sets", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogHandler_Today(t *testing.T) {
	s := newTestStore(t)
	h := newTestRouter(s)

	ex := &store.Exercise{Name: "Lateral Raise", Sets: "1"}
	require.NoError(t, s.Exercises().Create(ex))

	rec := doRequest(t, h, http.MethodPost, "/api/logs/today/exercises", map[string]string{"exercise_id": ex.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	_, err := s.Logs().GetByDate(time.Now().Format(store.DateLayout))
	assert.NoError(t, err)
}

func TestLogHandler_Errors(t *testing.T) {
	s := newTestStore(t)
	h := newTestRouter(s)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad date", http.MethodGet, "/api/logs/16-10-2026", nil, http.StatusBadRequest},
		{"missing exercise id", http.MethodPost, "/api/logs/2026-10-16/exercises", map[string]string{}, http.StatusBadRequest},
		{"unknown exercise", http.MethodPost, "/api/logs/2026-10-16/exercises", map[string]string{"exercise_id": "nope"}, http.StatusNotFound},
		{"set without log", http.MethodPost, "/api/logs/2026-10-16/exercises/nope/sets", map[string]int{"reps": 5}, http.StatusNotFound},
		{"remove without log", http.MethodDelete, "/api/logs/2026-10-16/exercises/nope", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTrackerHandler(t *testing.T) {
	h := newTestRouter(newTestStore(t))

	rec := doRequest(t, h, http.MethodGet, "/api/trackers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[struct {
		Trackers []tracker.Entry `json:"trackers"`
	}](t, rec)
	require.NotEmpty(t, resp.Trackers)

	kinds := make([]tracker.Kind, 0, len(resp.Trackers))
	for _, e := range resp.Trackers {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, tracker.KindCurl)
	assert.Contains(t, kinds, tracker.KindSquat)
}

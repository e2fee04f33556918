package api

import (
	"net/http"

	"github.com/grindsens/repcoach/internal/tracker"
)

// TrackerHandler lists the exercises that can be counted automatically.
type TrackerHandler struct {
	registry *tracker.Registry
}

// NewTrackerHandler creates a new TrackerHandler.
func NewTrackerHandler(registry *tracker.Registry) *TrackerHandler {
	return &TrackerHandler{registry: registry}
}

// ServeHTTP handles GET /api/trackers.
func (h *TrackerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"trackers": h.registry.Supported(),
	})
}

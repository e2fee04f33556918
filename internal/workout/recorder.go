// Package workout persists completed sets into the daily workout log.
package workout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/store"
)

// Set sources recorded with each set.
const (
	SourceCamera      = "camera"
	SourceSupervision = "supervision"
	SourceManual      = "manual"
)

// ParseTargetSets reads a set target such as "3" or "3-4". The upper end of a
// range wins; anything unparseable means one set.
func ParseTargetSets(text string) int {
	parts := strings.Split(text, "-")
	n, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// StatusFor maps a completed set count to the entry status.
func StatusFor(completed, target int) store.Status {
	switch {
	case completed >= target:
		return store.StatusFull
	case completed > 0:
		return store.StatusPartial
	default:
		return store.StatusPending
	}
}

// Progress is the state of one exercise in today's log.
type Progress struct {
	Entry      *store.LoggedExercise
	TargetSets int
	Complete   bool
}

func progressOf(e *store.LoggedExercise) Progress {
	target := ParseTargetSets(e.TargetSets)
	return Progress{
		Entry:      e,
		TargetSets: target,
		Complete:   e.SetsCompleted >= target,
	}
}

// Recorder writes set completions to the store.
type Recorder struct {
	store *store.Store
	now   func() time.Time
}

// NewRecorder creates a Recorder using the local clock.
func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{store: s, now: time.Now}
}

// Today returns the date key of the current daily log.
func (r *Recorder) Today() string {
	return r.now().Format(store.DateLayout)
}

// Begin loads an exercise and its entry in today's log, adding the entry
// when the exercise has not been logged today yet.
func (r *Recorder) Begin(exerciseID string) (*store.Exercise, Progress, error) {
	ex, err := r.store.Exercises().GetByID(exerciseID)
	if err != nil {
		return nil, Progress{}, fmt.Errorf("load exercise %s: %w", exerciseID, err)
	}

	daily, err := r.store.Logs().GetOrCreate(r.Today())
	if err != nil {
		return nil, Progress{}, fmt.Errorf("load daily log: %w", err)
	}

	entry, err := r.store.Logs().AddExercise(daily.ID, ex)
	if err != nil {
		return nil, Progress{}, fmt.Errorf("add exercise to log: %w", err)
	}

	return ex, progressOf(entry), nil
}

// SetCompleted records one finished set for the entry and returns the new progress.
func (r *Recorder) SetCompleted(entry *store.LoggedExercise, reps int, source string) (Progress, error) {
	target := ParseTargetSets(entry.TargetSets)

	updated, err := r.store.Logs().RecordSet(entry.ID, reps, source, func(n int) store.Status {
		return StatusFor(n, target)
	})
	if err != nil {
		return Progress{}, fmt.Errorf("record set: %w", err)
	}

	p := progressOf(updated)
	log.WithFields(log.Fields{
		"exercise": updated.ExerciseName,
		"sets":     updated.SetsCompleted,
		"target":   p.TargetSets,
		"status":   updated.Status,
		"source":   source,
	}).Info("set recorded")

	return p, nil
}

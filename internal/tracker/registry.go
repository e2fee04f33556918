package tracker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupported is returned when no tracker is registered for an exercise name.
var ErrUnsupported = errors.New("exercise not supported")

// Kind identifies a supported exercise.
type Kind string

// Built-in exercise kinds.
const (
	KindCurl          Kind = "curl"
	KindRightCurl     Kind = "curl_right"
	KindSquat         Kind = "squat"
	KindShoulderPress Kind = "shoulder_press"
	KindLateralRaise  Kind = "lateral_raise"
)

// Entry describes one registered kind for listing.
type Entry struct {
	Kind    Kind     `json:"kind"`
	Name    string   `json:"name"`
	Joints  []int    `json:"joints"`
	Aliases []string `json:"aliases"`
}

// Registry maps exercise names and aliases to trackers.
type Registry struct {
	mu       sync.RWMutex
	trackers map[Kind]Tracker
	aliases  map[string]Kind
}

// NewRegistry creates a registry holding the built-in exercises.
func NewRegistry(t Thresholds) *Registry {
	r := &Registry{
		trackers: make(map[Kind]Tracker),
		aliases:  make(map[string]Kind),
	}

	r.Register(KindCurl, Curl(t), "bicep curl", "dumbbell bicep curl", "curl_l", "left bicep curl")
	r.Register(KindRightCurl, RightCurl(t), "curl_r", "right bicep curl")
	r.Register(KindSquat, Squat(t), "bodyweight squats", "goblet squats")
	r.Register(KindShoulderPress, ShoulderPress(t), "shoulder press", "dumbbell shoulder press", "overhead press")
	r.Register(KindLateralRaise, LateralRaise(t), "lateral raise", "dumbbell lateral raise", "front raise")

	return r
}

// Register adds or replaces the tracker for kind. The kind itself is always
// a valid lookup name; aliases are matched the same way after Normalize.
func (r *Registry) Register(kind Kind, t Tracker, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trackers[kind] = t
	r.aliases[Normalize(string(kind))] = kind
	for _, a := range aliases {
		r.aliases[Normalize(a)] = kind
	}
}

// Resolve returns the kind registered under name.
func (r *Registry) Resolve(name string) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.aliases[Normalize(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return kind, nil
}

// Lookup returns the tracker registered under name.
func (r *Registry) Lookup(name string) (Tracker, error) {
	kind, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return r.Tracker(kind)
}

// Tracker returns the tracker for a kind.
func (r *Registry) Tracker(kind Kind) (Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trackers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, kind)
	}
	return t, nil
}

// Supported lists every registered kind with its aliases, sorted by kind.
func (r *Registry) Supported() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byKind := make(map[Kind][]string, len(r.trackers))
	for alias, kind := range r.aliases {
		byKind[kind] = append(byKind[kind], alias)
	}

	entries := make([]Entry, 0, len(r.trackers))
	for kind, t := range r.trackers {
		aliases := byKind[kind]
		sort.Strings(aliases)

		e := Entry{Kind: kind, Joints: t.Joints(), Aliases: aliases}
		if b, ok := t.(*Band); ok {
			e.Name = b.Name
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Kind < entries[j].Kind })
	return entries
}

// Normalize lowercases a name and folds underscores and runs of whitespace
// into single spaces.
func Normalize(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, "_", " "))
	return strings.Join(strings.Fields(name), " ")
}

package session

import (
	"regexp"
	"strconv"
)

// DefaultTargetReps is used when no integer can be parsed from the rep text.
const DefaultTargetReps = 10

var firstInt = regexp.MustCompile(`\d+`)

// ParseTargetReps returns the first integer found in text, such as 10 for
// "10-12 reps" or 30 for "30s". It falls back to DefaultTargetReps.
func ParseTargetReps(text string) int {
	return ResolveTarget(text, 0, DefaultTargetReps)
}

// ResolveTarget picks the target rep count for a set. A positive override
// wins; otherwise the first positive integer in text is used, then fallback.
func ResolveTarget(text string, override, fallback int) int {
	if override > 0 {
		return override
	}
	if fallback <= 0 {
		fallback = DefaultTargetReps
	}

	match := firstInt.FindString(text)
	if match == "" {
		return fallback
	}
	n, err := strconv.Atoi(match)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

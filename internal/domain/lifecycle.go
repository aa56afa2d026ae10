package domain

import (
	"fmt"
	"strings"
)

// Phase is the lifecycle phase reported by the host environment.
type Phase int

const (
	// PhaseActive means the application is in the foreground.
	PhaseActive Phase = iota

	// PhaseInactive means the application is visible but not receiving input.
	PhaseInactive

	// PhaseBackground means the application has moved to the background.
	// This is the only phase that persists favorites.
	PhaseBackground
)

// String returns the lowercase name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseInactive:
		return "inactive"
	case PhaseBackground:
		return "background"
	default:
		return "unknown"
	}
}

// ParsePhase converts a phase name to a Phase.
// "foreground" is accepted as an alias for active.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "foreground":
		return PhaseActive, nil
	case "inactive":
		return PhaseInactive, nil
	case "background":
		return PhaseBackground, nil
	default:
		return 0, NewValidationErrorWithValue("phase", fmt.Sprintf("unknown lifecycle phase %q", s), s)
	}
}

package core

import (
	"sort"
	"time"
)

// MoodSnapshot is the slow-moving emotional trend derived from recent primary
// emotions via exponential moving average. Valence and arousal are in [-1,1].
type MoodSnapshot struct {
	Valence     float64   `json:"valence"`
	Arousal     float64   `json:"arousal"`
	LastUpdated time.Time `json:"last_updated"`
}

// AffectSnapshot is an immutable copy of the affect owner's state handed to
// other components. Mutating a snapshot never leaks back into the owner.
type AffectSnapshot struct {
	// Primary is the current dominant emotion.
	Primary string `json:"primary"`

	// Intensity of the primary emotion in [0,1].
	Intensity float64 `json:"intensity"`

	// Secondary shades currently active (name -> intensity).
	Secondary map[string]float64 `json:"secondary,omitempty"`

	// Fused is the emergent blended emotion, if the current primary and a
	// strong secondary shade match a fusion rule ("" otherwise).
	Fused string `json:"fused,omitempty"`

	Mood MoodSnapshot `json:"mood"`
}

// StrongestSecondary returns the highest-intensity secondary shade, breaking
// ties by lexicographic name so the result is deterministic.
func (s AffectSnapshot) StrongestSecondary() (string, float64) {
	names := make([]string, 0, len(s.Secondary))
	for name := range s.Secondary {
		names = append(names, name)
	}
	sort.Strings(names)
	best, bestLevel := "", 0.0
	for _, name := range names {
		if s.Secondary[name] > bestLevel {
			best, bestLevel = name, s.Secondary[name]
		}
	}
	return best, bestLevel
}

// DriveSnapshot is a read-only copy of the motivational levels, each in [0,1].
type DriveSnapshot struct {
	Levels map[string]float64 `json:"levels"`
}

// Names returns the drive names in sorted order for deterministic iteration.
func (s DriveSnapshot) Names() []string {
	names := make([]string, 0, len(s.Levels))
	for name := range s.Levels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

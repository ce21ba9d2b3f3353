package core

import "time"

// ShortTermEntry is one slot of the bounded recent-history window. Entries are
// owned exclusively by the memory store; callers receive copies.
type ShortTermEntry struct {
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Summary   string         `json:"summary"`
	Affect    AffectSnapshot `json:"affect"`

	// Importance is the base affect weight assigned at append time, feeding
	// the promotion decision during consolidation.
	Importance float64 `json:"importance"`

	Tags      []string `json:"tags,omitempty"`
	Sensitive bool     `json:"sensitive,omitempty"`
}

// LongTermRecord is a durable, weighted memory produced by consolidation.
// Weight moves in one direction per step: reinforcement increases it, decay
// decreases it, never both ambiguously. Records are mutated only through the
// memory store's consolidation operations; fusion reads copies.
type LongTermRecord struct {
	ID               string    `json:"record_id"`
	CreatedAt        time.Time `json:"created_at"`
	LastReinforcedAt time.Time `json:"last_reinforced_at"`
	Summary          string    `json:"summary"`
	Tags             []string  `json:"tags,omitempty"`

	// EmotionalWeight is the current retention weight, always >= 0.
	EmotionalWeight float64 `json:"emotional_weight"`

	// Tone records the dominant emotion at consolidation time and feeds the
	// continuity trend reported by the store.
	Tone string `json:"tone,omitempty"`

	AccessCount int  `json:"access_count"`
	Sensitive   bool `json:"sensitive,omitempty"`
}

// HasTag reports whether the record carries the given topic tag.
func (r LongTermRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

package core

import (
	"time"

	"github.com/google/uuid"
)

// AffectDelta is the instantaneous emotional signal extracted from one
// interaction by the upstream affect-extraction collaborator. Emotion names
// must belong to the engine's emotion registry; unknown names are rejected at
// update time rather than silently dropped.
type AffectDelta struct {
	// Emotion is the detected primary emotion ("" means no emotional signal).
	Emotion string `json:"emotion,omitempty"`

	// Intensity is the strength of the signal in [0,1].
	Intensity float64 `json:"intensity,omitempty"`

	// Secondary carries weaker accompanying shades (name -> intensity).
	Secondary map[string]float64 `json:"secondary,omitempty"`
}

// Event is one discrete interaction entering the engine. After construction it
// should be treated as immutable. The raw text stays with the caller; the
// engine only ever sees the opaque TextRef handle, the extracted affect delta
// and the topic tags produced by the upstream classifier.
type Event struct {
	ID          string      `json:"id"`
	Timestamp   time.Time   `json:"timestamp"`
	TextRef     string      `json:"text_ref"`
	AffectDelta AffectDelta `json:"affect_delta"`
	TopicTags   []string    `json:"topic_tags,omitempty"`
	Sensitive   bool        `json:"sensitive,omitempty"`
}

// NewEvent creates an event with a fresh ID and a UTC timestamp.
func NewEvent(textRef string, delta AffectDelta, tags ...string) Event {
	return Event{
		ID:          NewID(),
		Timestamp:   time.Now().UTC(),
		TextRef:     textRef,
		AffectDelta: delta,
		TopicTags:   tags,
	}
}

// NewID generates a new unique identifier for events and turns.
func NewID() string { return uuid.NewString() }

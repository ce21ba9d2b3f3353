package testutil

import (
	"fmt"
	"time"

	"github.com/hupe1980/personamesh/core"
)

// EventBuilder provides a fluent helper for constructing events in tests.
// Example:
//
//	ev := testutil.NewEventBuilder().Emotion("happy", 0.7).Tags("music").At(t0).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EventBuilder struct {
	id        string
	timestamp time.Time
	textRef   string
	delta     core.AffectDelta
	tags      []string
	sensitive bool
}

// NewEventBuilder creates a builder with a fixed base timestamp so tests stay
// deterministic.
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{
		timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		textRef:   "text-ref",
	}
}

// ID overrides the auto-generated event ID (chainable).
func (b *EventBuilder) ID(id string) *EventBuilder { b.id = id; return b }

// At sets the event timestamp (chainable).
func (b *EventBuilder) At(t time.Time) *EventBuilder { b.timestamp = t; return b }

// After shifts the timestamp relative to the current one (chainable).
func (b *EventBuilder) After(d time.Duration) *EventBuilder {
	b.timestamp = b.timestamp.Add(d)
	return b
}

// TextRef sets the opaque text handle (chainable).
func (b *EventBuilder) TextRef(ref string) *EventBuilder { b.textRef = ref; return b }

// Emotion sets the primary affect signal (chainable).
func (b *EventBuilder) Emotion(name string, intensity float64) *EventBuilder {
	b.delta.Emotion = name
	b.delta.Intensity = intensity
	return b
}

// Shade adds a secondary affect shade (chainable).
func (b *EventBuilder) Shade(name string, intensity float64) *EventBuilder {
	if b.delta.Secondary == nil {
		b.delta.Secondary = make(map[string]float64)
	}
	b.delta.Secondary[name] = intensity
	return b
}

// Tags sets the topic tags (chainable).
func (b *EventBuilder) Tags(tags ...string) *EventBuilder { b.tags = tags; return b }

// Sensitive marks the event as privacy-sensitive (chainable).
func (b *EventBuilder) Sensitive() *EventBuilder { b.sensitive = true; return b }

// Build assembles the event.
func (b *EventBuilder) Build() core.Event {
	id := b.id
	if id == "" {
		id = core.NewID()
	}
	return core.Event{
		ID:          id,
		Timestamp:   b.timestamp,
		TextRef:     b.textRef,
		AffectDelta: b.delta,
		TopicTags:   b.tags,
		Sensitive:   b.sensitive,
	}
}

// Sequence builds n events spaced by step, all carrying the same affect
// signal and tags, useful for exercising capacity and decay paths.
func (b *EventBuilder) Sequence(n int, step time.Duration) []core.Event {
	events := make([]core.Event, 0, n)
	for i := 0; i < n; i++ {
		ev := b.Build()
		ev.ID = fmt.Sprintf("ev-%03d", i)
		ev.Timestamp = b.timestamp.Add(time.Duration(i) * step)
		events = append(events, ev)
	}
	return events
}

package testutil

import (
	"fmt"
	"time"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
)

// EntryBuilder constructs short-term entries for memory and consolidation
// tests without going through the full router pipeline.
type EntryBuilder struct {
	entry core.ShortTermEntry
}

// NewEntryBuilder creates a builder with a deterministic timestamp and a
// neutral affect snapshot.
func NewEntryBuilder() *EntryBuilder {
	return &EntryBuilder{entry: core.ShortTermEntry{
		EventID:   core.NewID(),
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Summary:   "an exchange (curious)",
		Affect:    core.AffectSnapshot{Primary: "curious", Intensity: 0.4},
	}}
}

// Summary sets the entry summary (chainable).
func (b *EntryBuilder) Summary(s string) *EntryBuilder { b.entry.Summary = s; return b }

// Importance sets the promotion weight (chainable).
func (b *EntryBuilder) Importance(w float64) *EntryBuilder { b.entry.Importance = w; return b }

// Tags sets the topic tags (chainable).
func (b *EntryBuilder) Tags(tags ...string) *EntryBuilder { b.entry.Tags = tags; return b }

// Tone sets the primary emotion recorded with the entry (chainable).
func (b *EntryBuilder) Tone(emotion string, intensity float64) *EntryBuilder {
	b.entry.Affect.Primary = emotion
	b.entry.Affect.Intensity = intensity
	return b
}

// At sets the entry timestamp (chainable).
func (b *EntryBuilder) At(t time.Time) *EntryBuilder { b.entry.Timestamp = t; return b }

// Sensitive marks the entry as privacy-sensitive (chainable).
func (b *EntryBuilder) Sensitive() *EntryBuilder { b.entry.Sensitive = true; return b }

// Build assembles a copy of the entry.
func (b *EntryBuilder) Build() core.ShortTermEntry {
	e := b.entry
	e.EventID = core.NewID()
	return e
}

// BuildN assembles n entries with distinct event ids and numbered summaries.
func (b *EntryBuilder) BuildN(n int) []core.ShortTermEntry {
	entries := make([]core.ShortTermEntry, 0, n)
	for i := 0; i < n; i++ {
		e := b.Build()
		e.EventID = fmt.Sprintf("entry-%03d", i)
		e.Summary = fmt.Sprintf("%s #%d", b.entry.Summary, i)
		entries = append(entries, e)
	}
	return entries
}

// TestConfig returns the default configuration tightened for fast tests:
// a small short-term capacity and a small turn queue.
func TestConfig() config.Config {
	cfg := config.Default()
	cfg.Memory.ShortTermCapacity = 5
	cfg.Router.QueueCapacity = 8
	return cfg
}

package identity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/personamesh/core"
)

// Relationship stages in increasing order of closeness.
const (
	StageAcquaintance = "acquaintance"
	StageFriend       = "friend"
	StageConfidant    = "confidant"
	StageCompanion    = "companion"
)

// stageProfiles carries the per-stage closeness and trust defaults that feed
// the relationship line.
var stageProfiles = map[string]struct {
	Closeness float64
	Trust     float64
}{
	StageAcquaintance: {0.05, 0.20},
	StageFriend:       {0.15, 0.50},
	StageConfidant:    {0.35, 0.75},
	StageCompanion:    {0.50, 0.90},
}

// Ledger owns the canon facts, the core identity line and per-user
// relationship state for one session. It is safe for concurrent access.
type Ledger struct {
	mu        sync.RWMutex
	lineLimit int
	facts     map[string]core.CanonFact
	coreLine  string
	relLines  map[string]string
	relStages map[string]string
}

// NewLedger creates a ledger enforcing the given per-line character cap.
func NewLedger(lineLimit int) *Ledger {
	if lineLimit <= 0 {
		lineLimit = 120
	}
	return &Ledger{
		lineLimit: lineLimit,
		facts:     map[string]core.CanonFact{},
		relLines:  map[string]string{},
		relStages: map[string]string{},
	}
}

// SetFact records a canon fact. Overwriting a locked fact is refused; locking
// an existing unlocked fact is allowed.
func (l *Ledger) SetFact(key, value string, lock bool) error {
	if key == "" {
		return fmt.Errorf("canon fact key must not be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.facts[key]; ok && existing.Locked {
		return fmt.Errorf("canon fact %q is locked", key)
	}
	l.facts[key] = core.CanonFact{Key: key, Value: value, Locked: lock}
	return nil
}

// Fact returns a canon fact by key.
func (l *Ledger) Fact(key string) (core.CanonFact, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.facts[key]
	return f, ok
}

// Facts returns all canon facts sorted by key.
func (l *Ledger) Facts() []core.CanonFact {
	l.mu.RLock()
	defer l.mu.RUnlock()
	facts := make([]core.CanonFact, 0, len(l.facts))
	for _, f := range l.facts {
		facts = append(facts, f)
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Key < facts[j].Key })
	return facts
}

// Guard checks a candidate statement against the locked canon. A statement
// that mentions a locked fact's key without mentioning its value is flagged.
// The check is advisory: the ledger only classifies, callers decide whether
// to suppress or rephrase. Locked facts are visited in key order so the
// result is deterministic.
func (l *Ledger) Guard(candidate string) core.GuardResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lowered := strings.ToLower(candidate)
	keys := make([]string, 0, len(l.facts))
	for key, f := range l.facts {
		if f.Locked {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		f := l.facts[key]
		topic := strings.ToLower(strings.ReplaceAll(key, "_", " "))
		if !strings.Contains(lowered, topic) {
			continue
		}
		if !strings.Contains(lowered, strings.ToLower(f.Value)) {
			return core.Violation(key, f.Value, candidate)
		}
	}
	return core.Consistent()
}

// SetCoreLine stores the identity line, truncated to the line cap at write
// time so queries never need to re-truncate.
func (l *Ledger) SetCoreLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.coreLine = truncate(line, l.lineLimit)
}

// CoreLine returns the pre-truncated identity line.
func (l *Ledger) CoreLine() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.coreLine
}

// SetRelationshipStage moves the relationship with a user to the given stage
// and rebuilds the pre-truncated relationship line.
func (l *Ledger) SetRelationshipStage(userID, stage string) error {
	profile, ok := stageProfiles[stage]
	if !ok {
		return fmt.Errorf("unknown relationship stage %q", stage)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.relStages[userID] = stage
	line := fmt.Sprintf("%s of %s (closeness %.2f, trust %.2f)",
		stage, userID, profile.Closeness, profile.Trust)
	l.relLines[userID] = truncate(line, l.lineLimit)
	return nil
}

// RelationshipStage returns the current stage for a user, defaulting to
// acquaintance.
func (l *Ledger) RelationshipStage(userID string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if stage, ok := l.relStages[userID]; ok {
		return stage
	}
	return StageAcquaintance
}

// RelationshipLine returns the pre-truncated relationship line for a user.
// Users never seen before get the acquaintance default.
func (l *Ledger) RelationshipLine(userID string) string {
	l.mu.RLock()
	line, ok := l.relLines[userID]
	l.mu.RUnlock()
	if ok {
		return line
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if line, ok := l.relLines[userID]; ok {
		return line
	}
	profile := stageProfiles[StageAcquaintance]
	line = truncate(fmt.Sprintf("%s of %s (closeness %.2f, trust %.2f)",
		StageAcquaintance, userID, profile.Closeness, profile.Trust), l.lineLimit)
	l.relLines[userID] = line
	l.relStages[userID] = StageAcquaintance
	return line
}

// LoadFrom replaces the fact set with the contents of a canon store.
func (l *Ledger) LoadFrom(ctx context.Context, store core.CanonStore) error {
	facts, err := store.LoadFacts(ctx)
	if err != nil {
		return fmt.Errorf("load canon facts: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.facts = make(map[string]core.CanonFact, len(facts))
	for _, f := range facts {
		l.facts[f.Key] = f
	}
	return nil
}

// SyncTo writes every fact to a canon store.
func (l *Ledger) SyncTo(ctx context.Context, store core.CanonStore) error {
	for _, f := range l.Facts() {
		if err := store.SaveFact(ctx, f); err != nil {
			return fmt.Errorf("save canon fact %q: %w", f.Key, err)
		}
	}
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

package affect

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
)

// shadeFactor scales implied secondary shades relative to the primary
// intensity.
const shadeFactor = 0.3

// State is the single mutable affect instance of an agent session. All
// mutation happens through Update; Snapshot returns immutable copies so
// concurrent readers never observe a live reference.
type State struct {
	mu        sync.Mutex
	cfg       config.AffectConfig
	primary   string
	intensity float64
	secondary map[string]float64
	mood      core.MoodSnapshot
}

// NewState creates an affect state resting at the configured baseline.
func NewState(cfg config.AffectConfig) *State {
	baseline := cfg.Baseline
	if !Known(baseline) {
		baseline = "neutral"
	}
	return &State{
		cfg:       cfg,
		primary:   baseline,
		secondary: map[string]float64{},
	}
}

// Update applies an instantaneous affect delta, then decays intensity toward
// the neutral baseline proportionally to elapsed. An elapsed of zero skips
// decay entirely. Unknown emotion names (primary or secondary) reject the
// whole delta with InvalidAffectKeyError before any state changes.
func (s *State) Update(delta core.AffectDelta, elapsed time.Duration) error {
	if elapsed < 0 {
		return fmt.Errorf("negative elapsed %v", elapsed)
	}
	if delta.Emotion != "" && !Known(delta.Emotion) {
		return &core.InvalidAffectKeyError{Key: delta.Emotion}
	}
	for name := range delta.Secondary {
		if !Known(name) {
			return &core.InvalidAffectKeyError{Key: name}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if delta.Emotion != "" {
		s.applyLocked(delta)
	}
	if elapsed > 0 {
		s.decayLocked(elapsed)
	}
	return nil
}

func (s *State) applyLocked(delta core.AffectDelta) {
	if delta.Emotion == s.primary {
		s.intensity = clamp01(s.intensity + delta.Intensity)
	} else {
		s.primary = delta.Emotion
		s.intensity = clamp01(delta.Intensity)
	}

	for _, shade := range shades[s.primary] {
		level := s.intensity * shadeFactor
		if level > s.secondary[shade] {
			s.secondary[shade] = level
		}
	}
	for name, level := range delta.Secondary {
		if name == s.primary {
			continue
		}
		if l := clamp01(level); l > s.secondary[name] {
			s.secondary[name] = l
		}
	}
	delete(s.secondary, s.primary)

	// Mood follows the primary's valence/arousal by EMA, weighted by how
	// intensely the emotion landed.
	c := registry[s.primary]
	a := s.cfg.MoodAlpha * s.intensity
	s.mood.Valence += a * (c.Valence - s.mood.Valence)
	s.mood.Arousal += a * (c.Arousal - s.mood.Arousal)
	s.mood.LastUpdated = time.Now().UTC()
}

func (s *State) decayLocked(elapsed time.Duration) {
	factor := math.Exp(-elapsed.Seconds() / s.cfg.HalfLife.Seconds())
	s.intensity *= factor
	for name, level := range s.secondary {
		level *= factor
		if level < 0.01 {
			delete(s.secondary, name)
			continue
		}
		s.secondary[name] = level
	}
	// Fully faded emotions settle back to the baseline disposition.
	if s.intensity < 0.02 && s.primary != s.cfg.Baseline && Known(s.cfg.Baseline) {
		s.primary = s.cfg.Baseline
	}
}

// Snapshot returns an immutable copy of the current state, including the
// derived fused emotion when the primary plus its strongest secondary shade
// match a fusion rule.
func (s *State) Snapshot() core.AffectSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := core.AffectSnapshot{
		Primary:   s.primary,
		Intensity: s.intensity,
		Secondary: make(map[string]float64, len(s.secondary)),
		Mood:      s.mood,
	}
	for name, level := range s.secondary {
		snap.Secondary[name] = level
	}
	if shade, level := snap.StrongestSecondary(); level >= fusionShadeFloor {
		if fused, ok := fusionRules[[2]string{s.primary, shade}]; ok {
			snap.Fused = fused
		}
	}
	return snap
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

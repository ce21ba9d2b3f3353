package drive

import (
	"math"
	"sync"
	"time"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
)

// Drive names tracked by the engine.
const (
	Curiosity  = "curiosity"
	Bonding    = "bonding"
	Safety     = "safety"
	Stability  = "stability"
	Comfort    = "comfort"
	Reflection = "reflection"
	Fatigue    = "fatigue"
)

// baselines are the resting levels each drive relaxes toward absent
// emotional pressure.
var baselines = map[string]float64{
	Curiosity:  0.45,
	Bonding:    0.50,
	Safety:     0.30,
	Stability:  0.40,
	Comfort:    0.35,
	Reflection: 0.45,
	Fatigue:    0.10,
}

// influences shifts drive targets per primary emotion.
var influences = map[string]map[string]float64{
	"curious":   {Curiosity: 0.25, Reflection: 0.05},
	"happy":     {Bonding: 0.20, Curiosity: 0.10},
	"sad":       {Comfort: 0.25, Bonding: 0.10, Safety: 0.10},
	"nostalgic": {Reflection: 0.30, Bonding: 0.10},
	"afraid":    {Safety: 0.35, Stability: 0.10},
	"excited":   {Curiosity: 0.15, Bonding: 0.15},
}

// trendInfluences nudges targets according to the dominant emotional trend
// across recent long-term records.
var trendInfluences = map[string]map[string]float64{
	"nostalgic": {Reflection: 0.15},
	"happy":     {Bonding: 0.15},
	"sad":       {Comfort: 0.20},
}

// Engine owns the drive vector for one session. Levels live in [0,1] and are
// only written here; Snapshot hands out copies.
type Engine struct {
	mu     sync.Mutex
	cfg    config.DriveConfig
	levels map[string]float64
}

// NewEngine creates a drive engine resting at the baseline levels.
func NewEngine(cfg config.DriveConfig) *Engine {
	levels := make(map[string]float64, len(baselines))
	for name, level := range baselines {
		levels[name] = level
	}
	return &Engine{cfg: cfg, levels: levels}
}

// Update moves each drive toward a target influenced by the affect snapshot,
// the continuity trend and elapsed time. Fatigue accumulates with elapsed
// time regardless of mood; low valence raises the pull toward comfort.
func (e *Engine) Update(elapsed time.Duration, snap core.AffectSnapshot, trend string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	targets := make(map[string]float64, len(baselines))
	for name, base := range baselines {
		targets[name] = base
	}
	for name, shift := range influences[snap.Primary] {
		targets[name] += shift * math.Max(snap.Intensity, 0.3)
	}
	for name, shift := range trendInfluences[trend] {
		targets[name] += shift
	}
	if snap.Mood.Valence < 0 {
		targets[Comfort] += -snap.Mood.Valence * 0.2
	}
	if snap.Mood.Arousal < -0.3 {
		targets[Reflection] += 0.10
	}

	// Fatigue is cumulative, not target-seeking: it rises with elapsed time
	// and only Rest brings it back down.
	e.levels[Fatigue] = clamp01(e.levels[Fatigue] + e.cfg.FatigueRisePerHour*elapsed.Hours())

	for name := range e.levels {
		if name == Fatigue {
			continue
		}
		target := clamp01(targets[name])
		e.levels[name] += (target - e.levels[name]) * e.cfg.Responsiveness
		e.levels[name] = clamp01(e.levels[name])
	}
}

// Rest lowers fatigue, called when the session sleeps.
func (e *Engine) Rest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.levels[Fatigue] = clamp01(e.levels[Fatigue] - 0.6)
}

// Snapshot returns a read-only copy of the drive vector.
func (e *Engine) Snapshot() core.DriveSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	levels := make(map[string]float64, len(e.levels))
	for name, level := range e.levels {
		levels[name] = level
	}
	return core.DriveSnapshot{Levels: levels}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Package config defines the tunable surface of the engine. Every threshold
// the retention, decay and fusion logic depends on lives here rather than as a
// hard-coded constant; values load from YAML and fall back to defaults chosen
// for interactive companion sessions.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AffectConfig tunes emotional decay and mood blending.
type AffectConfig struct {
	// HalfLife controls exponential intensity decay toward the neutral
	// baseline: intensity *= exp(-elapsed/half_life).
	HalfLife time.Duration `yaml:"half_life"`

	// MoodAlpha is the EMA factor applied per emotional update in (0,1].
	MoodAlpha float64 `yaml:"mood_alpha"`

	// Baseline is the emotion the agent settles toward when idle.
	Baseline string `yaml:"baseline"`
}

// DriveConfig tunes motivational dynamics.
type DriveConfig struct {
	// Responsiveness is the per-update fraction each drive moves toward its
	// target, in (0,1].
	Responsiveness float64 `yaml:"responsiveness"`

	// FatigueRisePerHour is the fatigue added per elapsed hour.
	FatigueRisePerHour float64 `yaml:"fatigue_rise_per_hour"`
}

// MemoryConfig tunes the retention window and retrieval ranking.
type MemoryConfig struct {
	// ShortTermCapacity is the hard bound K on the recent-history window.
	ShortTermCapacity int `yaml:"short_term_capacity"`

	// QueryHalfLifeDays controls the recency factor in long-term ranking.
	QueryHalfLifeDays float64 `yaml:"query_half_life_days"`
}

// ConsolidationConfig tunes promotion, decay and compression of long-term
// records.
type ConsolidationConfig struct {
	// PromotionThreshold is the minimum importance for a short-term
	// candidate to become (or reinforce) a long-term record.
	PromotionThreshold float64 `yaml:"promotion_threshold"`

	// ReinforcementBonus is added to a candidate's importance when an
	// existing record shares its fingerprint.
	ReinforcementBonus float64 `yaml:"reinforcement_bonus"`

	// DecayRatePerDay is the linear weight loss per day since the last
	// reinforcement, floored at zero.
	DecayRatePerDay float64 `yaml:"decay_rate_per_day"`

	// GracePeriod is how long a zero-weight record survives before it is
	// offered for compression.
	GracePeriod time.Duration `yaml:"grace_period"`
}

// FusionConfig tunes the output bundle.
type FusionConfig struct {
	// TokenBudget is the hard cap on the serialized bundle size.
	TokenBudget int `yaml:"token_budget"`

	// MaxHighlights bounds the memory highlights per bundle (at most 3).
	MaxHighlights int `yaml:"max_highlights"`

	// LineLimit is the per-line character cap enforced by the identity
	// ledger at write time.
	LineLimit int `yaml:"line_limit"`
}

// RouterConfig tunes turn orchestration.
type RouterConfig struct {
	// QueueCapacity bounds events queued while a turn or consolidation is
	// in flight.
	QueueCapacity int `yaml:"queue_capacity"`

	// IdleThreshold is the inter-event gap that triggers a consolidation
	// cycle during the next turn.
	IdleThreshold time.Duration `yaml:"idle_threshold"`
}

// Config aggregates all engine tuning sections.
type Config struct {
	Affect        AffectConfig        `yaml:"affect"`
	Drive         DriveConfig         `yaml:"drive"`
	Memory        MemoryConfig        `yaml:"memory"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	Fusion        FusionConfig        `yaml:"fusion"`
	Router        RouterConfig        `yaml:"router"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Affect: AffectConfig{
			HalfLife:  30 * time.Minute,
			MoodAlpha: 0.25,
			Baseline:  "curious",
		},
		Drive: DriveConfig{
			Responsiveness:     0.5,
			FatigueRisePerHour: 0.05,
		},
		Memory: MemoryConfig{
			ShortTermCapacity: 50,
			QueryHalfLifeDays: 7,
		},
		Consolidation: ConsolidationConfig{
			PromotionThreshold: 0.35,
			ReinforcementBonus: 0.15,
			DecayRatePerDay:    0.02,
			GracePeriod:        72 * time.Hour,
		},
		Fusion: FusionConfig{
			TokenBudget:   256,
			MaxHighlights: 3,
			LineLimit:     120,
		},
		Router: RouterConfig{
			QueueCapacity: 32,
			IdleThreshold: 45 * time.Minute,
		},
	}
}

// Load reads a YAML config file, layering its values over the defaults so
// partial files are valid.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot operate under.
func (c Config) Validate() error {
	if c.Affect.HalfLife <= 0 {
		return fmt.Errorf("affect.half_life must be positive")
	}
	if c.Affect.MoodAlpha <= 0 || c.Affect.MoodAlpha > 1 {
		return fmt.Errorf("affect.mood_alpha must be in (0,1]")
	}
	if c.Drive.Responsiveness <= 0 || c.Drive.Responsiveness > 1 {
		return fmt.Errorf("drive.responsiveness must be in (0,1]")
	}
	if c.Memory.ShortTermCapacity <= 0 {
		return fmt.Errorf("memory.short_term_capacity must be positive")
	}
	if c.Memory.QueryHalfLifeDays <= 0 {
		return fmt.Errorf("memory.query_half_life_days must be positive")
	}
	if c.Consolidation.PromotionThreshold < 0 {
		return fmt.Errorf("consolidation.promotion_threshold must be >= 0")
	}
	if c.Consolidation.DecayRatePerDay < 0 {
		return fmt.Errorf("consolidation.decay_rate_per_day must be >= 0")
	}
	if c.Fusion.TokenBudget <= 0 {
		return fmt.Errorf("fusion.token_budget must be positive")
	}
	if c.Fusion.MaxHighlights < 0 || c.Fusion.MaxHighlights > 3 {
		return fmt.Errorf("fusion.max_highlights must be in [0,3]")
	}
	if c.Fusion.LineLimit <= 0 {
		return fmt.Errorf("fusion.line_limit must be positive")
	}
	if c.Router.QueueCapacity <= 0 {
		return fmt.Errorf("router.queue_capacity must be positive")
	}
	return nil
}

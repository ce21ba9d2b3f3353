// Package fusion composes the single bounded ContextBundle handed to the
// text-generation backend. Compose is pure: identical snapshots produce a
// byte-identical bundle, which keeps the output reproducible under test.
//
// When the budget is too small for everything, components drop in a fixed
// priority order: the canon identity line survives longest, then the
// relationship line, then the mood and drive hints, and finally the memory
// highlights, which are added highest-ranked first and dropped from the tail.
package fusion

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
	"github.com/hupe1980/personamesh/drive"
	"github.com/hupe1980/personamesh/logging"
)

// Guard classifies candidate statements against the locked canon. Satisfied
// by *identity.Ledger.
type Guard interface {
	Guard(candidate string) core.GuardResult
}

// Options configures a Composer.
type Options struct {
	// Logger reports the size outcome of each pass. Defaults to NoOp.
	Logger logging.Logger
}

// Composer builds context bundles under a token budget.
type Composer struct {
	cfg   config.FusionConfig
	guard Guard
	opts  Options
}

// NewComposer creates a composer using the given guard for canon checks.
func NewComposer(cfg config.FusionConfig, guard Guard, optFns ...func(o *Options)) *Composer {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Composer{cfg: cfg, guard: guard, opts: opts}
}

// WithLogger sets the composer logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Compose assembles a bundle from the given snapshots. A non-positive budget
// falls back to the configured default. Memory highlights whose content the
// guard flags as a violation are skipped, not rewritten; sensitive records
// never surface. The returned bundle's size never exceeds the budget.
func (c *Composer) Compose(
	affect core.AffectSnapshot,
	drives core.DriveSnapshot,
	hits []core.LongTermRecord,
	identityLine, relationshipLine string,
	budget int,
) core.ContextBundle {
	if budget <= 0 {
		budget = c.cfg.TokenBudget
	}

	var bundle core.ContextBundle

	// Size is accounted against the accumulated serialized form, not per
	// fragment: summing rounded-up fragment estimates would over-count
	// whenever a fragment is not a 4-byte multiple, and SizeInTokens must
	// equal the estimate of the final render.
	var text strings.Builder

	// Once a component fails to fit, everything of lower priority drops
	// with it: a short drive hint must not outlive a dropped mood hint.
	full := false
	add := func(fragment string) bool {
		if full {
			return false
		}
		if core.EstimateTokens(text.String()+fragment) > budget {
			full = true
			return false
		}
		text.WriteString(fragment)
		return true
	}

	if identityLine != "" && add("identity: "+identityLine+"\n") {
		bundle.IdentityLine = identityLine
	}
	if relationshipLine != "" && add("relationship: "+relationshipLine+"\n") {
		bundle.RelationshipLine = relationshipLine
	}
	if hint := MoodHint(affect); hint != "" && add("mood: "+hint+"\n") {
		bundle.MoodHint = hint
	}
	if hint := DriveHint(drives); hint != "" && add("drives: "+hint+"\n") {
		bundle.DriveHint = hint
	}

	maxHighlights := c.cfg.MaxHighlights
	if maxHighlights > 3 {
		maxHighlights = 3
	}
	header := false
	for _, rec := range hits {
		if full || len(bundle.MemoryHighlights) >= maxHighlights {
			break
		}
		if rec.Sensitive || rec.Summary == "" {
			continue
		}
		if c.guard != nil && !c.guard.Guard(rec.Summary).Consistent {
			continue
		}
		fragment := "- " + rec.Summary + "\n"
		if !header {
			fragment = "memory:\n" + fragment
		}
		if !add(fragment) {
			break
		}
		header = true
		bundle.MemoryHighlights = append(bundle.MemoryHighlights, rec.Summary)
	}

	bundle.SizeInTokens = core.EstimateTokens(text.String())

	if sl, ok := c.opts.Logger.(*logging.SessionLogger); ok {
		sl.LogFusion(bundle.SizeInTokens, budget, len(bundle.MemoryHighlights), len(hits)-len(bundle.MemoryHighlights))
	}
	return bundle
}

// MoodHint renders the affect snapshot into a short deterministic phrase.
func MoodHint(snap core.AffectSnapshot) string {
	var sb strings.Builder
	if snap.Fused != "" {
		shade, _ := snap.StrongestSecondary()
		fmt.Fprintf(&sb, "feeling %s (%s shaded by %s)", snap.Fused, snap.Primary, shade)
	} else {
		fmt.Fprintf(&sb, "feeling %s", snap.Primary)
	}
	fmt.Fprintf(&sb, ", intensity %.2f, valence %+.2f", snap.Intensity, snap.Mood.Valence)
	return sb.String()
}

// DriveHint names the strongest motivational pull, mentioning fatigue when it
// dominates. Ties break by drive name so the hint is deterministic.
func DriveHint(snap core.DriveSnapshot) string {
	names := snap.Names()
	best, bestLevel := "", math.Inf(-1)
	for _, name := range names {
		if name == drive.Fatigue {
			continue
		}
		if snap.Levels[name] > bestLevel {
			best, bestLevel = name, snap.Levels[name]
		}
	}
	if best == "" {
		return ""
	}
	hint := fmt.Sprintf("drawn toward %s (%.2f)", best, bestLevel)
	if snap.Levels[drive.Fatigue] >= 0.7 {
		hint += ", running low on energy"
	}
	return hint
}

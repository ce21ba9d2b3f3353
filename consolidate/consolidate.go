// Package consolidate implements the scheduler that turns short-term
// candidates into durable long-term records and keeps the record set from
// growing without bound. A cycle promotes or discards every pending
// candidate, applies decay, and compresses faded records. Cycles are
// idempotent: running twice with no new candidates in between changes nothing.
package consolidate

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
	"github.com/hupe1980/personamesh/logging"
	"github.com/hupe1980/personamesh/memory"
)

// Result reports what one consolidation cycle did.
type Result struct {
	Promoted   int `json:"promoted"`
	Reinforced int `json:"reinforced"`
	Discarded  int `json:"discarded"`
	Decayed    int `json:"decayed"`
	Compressed int `json:"compressed"`

	// Deferred counts records compression could not find a safe merge
	// target for. They are retained unmodified and retried next cycle;
	// correctness outweighs compactness.
	Deferred int `json:"deferred"`
}

// Deferral reports the cycle's compression deferrals as an error matching
// core.ErrConsolidationDeferred, or nil when nothing was deferred. The
// scheduler only ever logs it; deferral never fails a cycle.
func (r Result) Deferral() error {
	if r.Deferred == 0 {
		return nil
	}
	return fmt.Errorf("%w (%d records)", core.ErrConsolidationDeferred, r.Deferred)
}

// Options configures a Scheduler.
type Options struct {
	// Logger used for cycle reporting. Defaults to NoOp.
	Logger logging.Logger

	// Records optionally persists the long-term set after each cycle.
	Records core.RecordStore
}

// Scheduler owns the consolidation policy for one session's memory store.
type Scheduler struct {
	mem  *memory.Store
	cfg  config.ConsolidationConfig
	opts Options
}

// New creates a scheduler over the given store.
func New(mem *memory.Store, cfg config.ConsolidationConfig, optFns ...func(o *Options)) *Scheduler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Scheduler{mem: mem, cfg: cfg, opts: opts}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithRecordStore attaches a persistence backend synced after each cycle.
func WithRecordStore(rs core.RecordStore) func(o *Options) {
	return func(o *Options) { o.Records = rs }
}

// RunCycle consolidates every pending eviction candidate, then decays and
// compresses the long-term set. Per-record isolation: a failure on one record
// never blocks the cycle for the others.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) (Result, error) {
	return s.consolidate(ctx, now, s.mem.DrainCandidates())
}

// Sleep consolidates the entire short-term window in addition to the pending
// candidates, used on an explicit sleep command or session end.
func (s *Scheduler) Sleep(ctx context.Context, now time.Time) (Result, error) {
	return s.consolidate(ctx, now, s.mem.DrainAll())
}

func (s *Scheduler) consolidate(ctx context.Context, now time.Time, candidates []core.ShortTermEntry) (Result, error) {
	start := time.Now()
	var res Result

	for _, cand := range candidates {
		importance := cand.Importance
		if s.mem.HasFingerprint(memory.Fingerprint(cand.Summary, cand.Tags)) {
			importance += s.cfg.ReinforcementBonus
		}
		if importance < s.cfg.PromotionThreshold {
			res.Discarded++
			continue
		}
		if _, created := s.mem.Promote(cand, importance, now); created {
			res.Promoted++
		} else {
			res.Reinforced++
		}
	}

	res.Decayed = s.mem.DecayRecords(now, s.cfg.DecayRatePerDay)

	var removed []string
	res.Compressed, res.Deferred, removed = s.mem.CompressExpired(now, s.cfg.GracePeriod)
	if err := res.Deferral(); err != nil {
		s.opts.Logger.Warn("compression deferred", "error", err)
	}

	if s.opts.Records != nil {
		s.persist(ctx, removed)
	}

	if sl, ok := s.opts.Logger.(*logging.SessionLogger); ok {
		sl.LogConsolidation(res.Promoted, res.Reinforced, res.Discarded, res.Compressed, res.Deferred, time.Since(start))
	} else {
		s.opts.Logger.Debug("consolidation cycle completed",
			"promoted", res.Promoted, "reinforced", res.Reinforced,
			"discarded", res.Discarded, "compressed", res.Compressed, "deferred", res.Deferred)
	}
	return res, nil
}

// persist syncs the surviving records and deletes the compressed ones.
// Storage errors are logged per record and never fail the cycle.
func (s *Scheduler) persist(ctx context.Context, removed []string) {
	if err := s.mem.SyncTo(ctx, s.opts.Records); err != nil {
		s.opts.Logger.Warn("record sync incomplete", "error", err)
	}
	for _, id := range removed {
		if err := s.opts.Records.DeleteRecord(ctx, id); err != nil {
			s.opts.Logger.Warn("record delete failed", "record_id", id, "error", err)
		}
	}
}

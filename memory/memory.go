package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
)

// DigestTag marks the coarse records compression folds faded memories into.
// Digest records are never compressed themselves.
const DigestTag = "digest"

// digestFloorWeight keeps fresh digest records from being immediately
// eligible for compression again.
const digestFloorWeight = 0.1

// record is the internal long-term representation. baseWeight is the weight
// at the moment of the last reinforcement; the exported EmotionalWeight is
// derived from it by decay passes.
type record struct {
	core.LongTermRecord
	baseWeight  float64
	fingerprint string
}

// Store owns the short-term window and the long-term record set for one
// session. It is safe for concurrent access; a consolidation cycle holds the
// write lock per operation so readers never observe a half-consolidated view.
type Store struct {
	mu       sync.RWMutex
	capacity int
	halfLife float64 // days, recency factor in Query

	short   []core.ShortTermEntry
	pending []core.ShortTermEntry

	records map[string]*record
	byFP    map[string]string
}

// NewStore creates a store with the configured short-term capacity.
func NewStore(cfg config.MemoryConfig) *Store {
	return &Store{
		capacity: cfg.ShortTermCapacity,
		halfLife: cfg.QueryHalfLifeDays,
		records:  map[string]*record{},
		byFP:     map[string]string{},
	}
}

// Append pushes an entry into the short-term window. At capacity the oldest
// entry is evicted into the pending-candidate queue first, so it still gets a
// consolidation decision. A window exceeding its bound afterwards indicates a
// bug and aborts with CapacityError.
func (s *Store) Append(e core.ShortTermEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.short) >= s.capacity {
		evict := len(s.short) - s.capacity + 1
		s.pending = append(s.pending, s.short[:evict]...)
		s.short = append(s.short[:0], s.short[evict:]...)
	}
	s.short = append(s.short, e)
	if len(s.short) > s.capacity {
		return &core.CapacityError{Capacity: s.capacity, Size: len(s.short)}
	}
	return nil
}

// ShortTerm returns a copy of the current window, oldest first.
func (s *Store) ShortTerm() []core.ShortTermEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ShortTermEntry, len(s.short))
	copy(out, s.short)
	return out
}

// HasPending reports whether evicted candidates await consolidation.
func (s *Store) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) > 0
}

// DrainCandidates removes and returns the evicted candidates, oldest first.
func (s *Store) DrainCandidates() []core.ShortTermEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// DrainAll removes and returns the pending candidates followed by the entire
// short-term window. Used by end-of-session consolidation.
func (s *Store) DrainAll() []core.ShortTermEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append(s.pending, s.short...)
	s.pending = nil
	s.short = nil
	return out
}

// HasFingerprint reports whether a record with the given fingerprint exists.
func (s *Store) HasFingerprint(fp string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byFP[fp]
	return ok
}

// Promote turns a candidate into a long-term record with the given starting
// weight, or reinforces the existing record sharing its fingerprint. The
// fingerprint check is mandatory: identical candidates always end up as one
// record with combined weight, never two.
func (s *Store) Promote(e core.ShortTermEntry, weight float64, now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp := Fingerprint(e.Summary, e.Tags)
	if id, ok := s.byFP[fp]; ok {
		s.reinforceLocked(s.records[id], weight, now)
		return id, false
	}

	tags := make([]string, len(e.Tags))
	copy(tags, e.Tags)
	sort.Strings(tags)

	rec := &record{
		LongTermRecord: core.LongTermRecord{
			ID:               ulid.Make().String(),
			CreatedAt:        now,
			LastReinforcedAt: now,
			Summary:          e.Summary,
			Tags:             tags,
			EmotionalWeight:  weight,
			Tone:             e.Affect.Primary,
			Sensitive:        e.Sensitive,
		},
		baseWeight:  weight,
		fingerprint: fp,
	}
	s.records[rec.ID] = rec
	s.byFP[fp] = rec.ID
	return rec.ID, true
}

// Reinforce increases a record's weight and refreshes its reinforcement
// timestamp.
func (s *Store) Reinforce(id string, delta float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	s.reinforceLocked(rec, delta, now)
	return nil
}

func (s *Store) reinforceLocked(rec *record, delta float64, now time.Time) {
	rec.baseWeight = rec.EmotionalWeight + delta
	rec.EmotionalWeight = rec.baseWeight
	rec.LastReinforcedAt = now
	rec.AccessCount++
}

// DecayRecords recomputes every record's weight from its base weight and the
// time since last reinforcement: weight = max(0, base - rate*days). Running
// it twice with the same clock reading changes nothing. Returns the number of
// records whose weight decreased.
func (s *Store) DecayRecords(now time.Time, ratePerDay float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	decayed := 0
	for _, rec := range s.records {
		days := now.Sub(rec.LastReinforcedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		weight := math.Max(0, rec.baseWeight-ratePerDay*days)
		if weight < rec.EmotionalWeight {
			decayed++
		}
		rec.EmotionalWeight = weight
	}
	return decayed
}

// CompressExpired folds zero-weight records past the grace period into a
// per-tag digest record. A record without tags has no safe merge target and
// is retained unmodified (deferred, retried next cycle) rather than lost.
// Returns compressed and deferred counts plus the removed record IDs so the
// persistence layer can drop them.
func (s *Store) CompressExpired(now time.Time, grace time.Duration) (int, int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var compressed, deferred int
	var removed []string
	for _, id := range ids {
		rec := s.records[id]
		if rec.EmotionalWeight > 0 || now.Sub(rec.LastReinforcedAt) <= grace {
			continue
		}
		if rec.HasTag(DigestTag) {
			continue
		}
		if len(rec.Tags) == 0 {
			deferred++
			continue
		}

		s.foldIntoDigestLocked(rec, now)
		delete(s.byFP, rec.fingerprint)
		delete(s.records, id)
		removed = append(removed, id)
		compressed++
	}
	return compressed, deferred, removed
}

func (s *Store) foldIntoDigestLocked(rec *record, now time.Time) {
	tag := rec.Tags[0]
	fp := digestFingerprint(tag)

	var digest *record
	if id, exists := s.byFP[fp]; exists {
		digest = s.records[id]
	}
	if digest == nil {
		digest = &record{
			LongTermRecord: core.LongTermRecord{
				ID:        ulid.Make().String(),
				CreatedAt: now,
				Tags:      []string{tag, DigestTag},
			},
			fingerprint: fp,
		}
		s.records[digest.ID] = digest
		s.byFP[fp] = digest.ID
	}
	digest.AccessCount++
	digest.Summary = fmt.Sprintf("condensed: %d faded memories about %s", digest.AccessCount, tag)
	digest.LastReinforcedAt = now
	digest.baseWeight = math.Max(digest.baseWeight, digestFloorWeight)
	digest.EmotionalWeight = digest.baseWeight
	if rec.Sensitive {
		digest.Sensitive = true
	}
}

// Query returns up to k records ranked by emotional weight, recency and tag
// overlap, ties broken by most recently reinforced first. Records with a zero
// score are omitted; an empty tag set ranks by weight and recency alone.
// Returned records are copies: callers get read-only access by construction.
func (s *Store) Query(tags []string, k int, now time.Time) []core.LongTermRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec   core.LongTermRecord
		score float64
	}
	candidates := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		overlap := tagOverlap(tags, rec.Tags)
		if overlap == 0 {
			continue
		}
		ageDays := math.Max(0, now.Sub(rec.LastReinforcedAt).Hours()/24)
		recency := math.Exp(-ageDays * math.Ln2 / s.halfLife)
		score := rec.EmotionalWeight * recency * overlap
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{rec: copyRecord(rec), score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].rec.LastReinforcedAt.Equal(candidates[j].rec.LastReinforcedAt) {
			return candidates[i].rec.LastReinforcedAt.After(candidates[j].rec.LastReinforcedAt)
		}
		return candidates[i].rec.ID < candidates[j].rec.ID
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]core.LongTermRecord, 0, k)
	for _, c := range candidates[:k] {
		out = append(out, c.rec)
	}
	return out
}

// tagOverlap is the fraction of query tags present on the record. With no
// query tags every record matches fully.
func tagOverlap(query, recTags []string) float64 {
	if len(query) == 0 {
		return 1
	}
	hits := 0
	for _, q := range query {
		for _, t := range recTags {
			if q == t {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(query))
}

// Trend reports the dominant emotional tone across the k most recently
// reinforced records. A tone must appear at least twice to register,
// otherwise the trend stays neutral.
func (s *Store) Trend(k int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Tone != "" {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].LastReinforcedAt.Equal(recs[j].LastReinforcedAt) {
			return recs[i].LastReinforcedAt.After(recs[j].LastReinforcedAt)
		}
		return recs[i].ID < recs[j].ID
	})
	if k < len(recs) {
		recs = recs[:k]
	}

	counts := map[string]int{}
	for _, rec := range recs {
		counts[rec.Tone]++
	}
	best, bestCount := "neutral", 1
	tones := make([]string, 0, len(counts))
	for tone := range counts {
		tones = append(tones, tone)
	}
	sort.Strings(tones)
	for _, tone := range tones {
		if counts[tone] > bestCount {
			best, bestCount = tone, counts[tone]
		}
	}
	return best
}

// Records returns copies of all long-term records sorted by ID.
func (s *Store) Records() []core.LongTermRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.LongTermRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordCount returns the number of long-term records.
func (s *Store) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// LoadFrom replaces the long-term set with the contents of a record store and
// rebuilds the fingerprint index.
func (s *Store) LoadFrom(ctx context.Context, store core.RecordStore) error {
	recs, err := store.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*record, len(recs))
	s.byFP = make(map[string]string, len(recs))
	for _, r := range recs {
		fp := Fingerprint(r.Summary, r.Tags)
		if r.HasTag(DigestTag) && len(r.Tags) > 0 {
			fp = digestFingerprint(r.Tags[0])
		}
		rec := &record{LongTermRecord: r, baseWeight: r.EmotionalWeight, fingerprint: fp}
		s.records[rec.ID] = rec
		s.byFP[fp] = rec.ID
	}
	return nil
}

// SyncTo writes every record to a record store. Failures are isolated per
// record: one bad row never blocks the rest, the joined error reports them
// all.
func (s *Store) SyncTo(ctx context.Context, store core.RecordStore) error {
	var errs []error
	for _, rec := range s.Records() {
		if err := store.SaveRecord(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("save record %s: %w", rec.ID, err))
		}
	}
	return errors.Join(errs...)
}

func copyRecord(rec *record) core.LongTermRecord {
	out := rec.LongTermRecord
	out.Tags = make([]string, len(rec.Tags))
	copy(out.Tags, rec.Tags)
	return out
}

package consolidate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
	"github.com/hupe1980/personamesh/internal/testutil"
	"github.com/hupe1980/personamesh/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testSetup(capacity int) (*memory.Store, *Scheduler) {
	mem := memory.NewStore(config.MemoryConfig{
		ShortTermCapacity: capacity,
		QueryHalfLifeDays: 7,
	})
	sched := New(mem, config.ConsolidationConfig{
		PromotionThreshold: 0.35,
		ReinforcementBonus: 0.15,
		DecayRatePerDay:    0.02,
		GracePeriod:        72 * time.Hour,
	})
	return mem, sched
}

func entry(id, summary string, importance float64, tags ...string) core.ShortTermEntry {
	e := testutil.NewEntryBuilder().
		Summary(summary).
		Importance(importance).
		Tone("happy", importance).
		Tags(tags...).
		At(t0).
		Build()
	e.EventID = id
	return e
}

func TestSleep_PromotesAboveThresholdDiscardsBelow(t *testing.T) {
	mem, sched := testSetup(10)
	require.NoError(t, mem.Append(entry("ev-1", "a big moment", 0.6, "music")))
	require.NoError(t, mem.Append(entry("ev-2", "small talk", 0.2)))

	res, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Promoted)
	assert.Equal(t, 1, res.Discarded)
	assert.Zero(t, res.Reinforced)

	recs := mem.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "a big moment", recs[0].Summary)
	assert.InDelta(t, 0.6, recs[0].EmotionalWeight, 1e-9)
	assert.Empty(t, mem.ShortTerm())
}

func TestRunCycle_OnlyConsumesEvictedCandidates(t *testing.T) {
	mem, sched := testSetup(2)
	for i := 0; i < 3; i++ {
		require.NoError(t, mem.Append(entry(fmt.Sprintf("ev-%d", i), fmt.Sprintf("moment %d", i), 0.5)))
	}

	res, err := sched.RunCycle(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Promoted)

	// The live window is untouched by a mid-session cycle.
	assert.Len(t, mem.ShortTerm(), 2)
}

func TestConsolidation_DuplicateCandidatesCombine(t *testing.T) {
	mem, sched := testSetup(10)
	require.NoError(t, mem.Append(entry("ev-1", "talked about music (happy)", 0.6, "music")))
	require.NoError(t, mem.Append(entry("ev-2", "talked about music (happy)", 0.6, "music")))

	res, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Promoted)
	assert.Equal(t, 1, res.Reinforced)

	recs := mem.Records()
	require.Len(t, recs, 1)
	// Second candidate earns the reinforcement bonus and folds into the
	// first record's weight: 0.6 + (0.6 + 0.15).
	assert.InDelta(t, 1.35, recs[0].EmotionalWeight, 1e-9)
	assert.Equal(t, 1, recs[0].AccessCount)
}

func TestConsolidation_BonusCanRescueBorderlineDuplicate(t *testing.T) {
	mem, sched := testSetup(10)
	require.NoError(t, mem.Append(entry("ev-1", "a quiet theme", 0.5, "books")))
	_, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)

	// 0.25 alone falls short of 0.35, but the fingerprint bonus lifts it.
	require.NoError(t, mem.Append(entry("ev-2", "a quiet theme", 0.25, "books")))
	res, err := sched.Sleep(context.Background(), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reinforced)
	assert.Zero(t, res.Discarded)
}

func TestRunCycle_Idempotent(t *testing.T) {
	mem, sched := testSetup(2)
	for i := 0; i < 4; i++ {
		require.NoError(t, mem.Append(entry(fmt.Sprintf("ev-%d", i), fmt.Sprintf("moment %d", i), 0.5)))
	}

	now := t0.Add(24 * time.Hour)
	first, err := sched.RunCycle(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 2, first.Promoted)
	before := mem.Records()

	second, err := sched.RunCycle(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, second.Promoted)
	assert.Zero(t, second.Reinforced)
	assert.Zero(t, second.Discarded)
	assert.Zero(t, second.Decayed)
	assert.Zero(t, second.Compressed)
	assert.Equal(t, before, mem.Records())
}

func TestRunCycle_DecayReachesZeroThenCompresses(t *testing.T) {
	mem, sched := testSetup(10)
	require.NoError(t, mem.Append(entry("ev-1", "a fading theme", 0.4, "music")))
	_, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)

	// 0.4 / 0.02 per day = gone after 20 days; well past the grace period.
	res, err := sched.RunCycle(context.Background(), t0.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Decayed)
	assert.Equal(t, 1, res.Compressed)

	recs := mem.Records()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].HasTag(memory.DigestTag))
}

func TestRunCycle_TaglessFadedRecordDeferred(t *testing.T) {
	mem, sched := testSetup(10)
	require.NoError(t, mem.Append(entry("ev-1", "an orphan theme", 0.4)))
	_, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)

	res, err := sched.RunCycle(context.Background(), t0.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deferred)
	assert.Zero(t, res.Compressed)
	assert.Equal(t, 1, mem.RecordCount())
	assert.ErrorIs(t, res.Deferral(), core.ErrConsolidationDeferred)
}

func TestResult_DeferralNilWhenNothingDeferred(t *testing.T) {
	mem, sched := testSetup(10)
	require.NoError(t, mem.Append(entry("ev-1", "a big moment", 0.6, "music")))

	res, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)
	assert.NoError(t, res.Deferral())
}

type fakeRecordStore struct {
	saved   map[string]core.LongTermRecord
	deleted []string
	failOn  string
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{saved: map[string]core.LongTermRecord{}}
}

func (f *fakeRecordStore) SaveRecord(_ context.Context, rec core.LongTermRecord) error {
	if f.failOn != "" && rec.Summary == f.failOn {
		return fmt.Errorf("disk full")
	}
	f.saved[rec.ID] = rec
	return nil
}

func (f *fakeRecordStore) LoadRecords(_ context.Context) ([]core.LongTermRecord, error) {
	out := make([]core.LongTermRecord, 0, len(f.saved))
	for _, rec := range f.saved {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeRecordStore) DeleteRecord(_ context.Context, id string) error {
	delete(f.saved, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestConsolidation_PersistsThroughRecordStore(t *testing.T) {
	store := newFakeRecordStore()
	mem := memory.NewStore(config.MemoryConfig{ShortTermCapacity: 10, QueryHalfLifeDays: 7})
	sched := New(mem, config.ConsolidationConfig{
		PromotionThreshold: 0.35,
		ReinforcementBonus: 0.15,
		DecayRatePerDay:    0.02,
		GracePeriod:        72 * time.Hour,
	}, WithRecordStore(store))

	require.NoError(t, mem.Append(entry("ev-1", "a kept theme", 0.6, "music")))
	_, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)
	require.Len(t, store.saved, 1)

	// Compression deletes the folded record from storage too.
	require.NoError(t, mem.Append(entry("ev-2", "a doomed theme", 0.4, "books")))
	_, err = sched.Sleep(context.Background(), t0.Add(time.Hour))
	require.NoError(t, err)

	res, err := sched.RunCycle(context.Background(), t0.Add(60*24*time.Hour))
	require.NoError(t, err)
	require.NotZero(t, res.Compressed)
	assert.NotEmpty(t, store.deleted)

	// Storage mirrors the in-memory set.
	assert.Len(t, store.saved, mem.RecordCount())
}

func TestConsolidation_StorageFailureDoesNotFailCycle(t *testing.T) {
	store := newFakeRecordStore()
	store.failOn = "a kept theme"
	mem := memory.NewStore(config.MemoryConfig{ShortTermCapacity: 10, QueryHalfLifeDays: 7})
	sched := New(mem, config.ConsolidationConfig{
		PromotionThreshold: 0.35,
	}, WithRecordStore(store))

	require.NoError(t, mem.Append(entry("ev-1", "a kept theme", 0.6, "music")))
	res, err := sched.Sleep(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Promoted)
	assert.Equal(t, 1, mem.RecordCount())
}

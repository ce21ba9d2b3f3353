package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/personamesh/core"
	"github.com/hupe1980/personamesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements both persistence interfaces behind one handle, the
// same shape the sqlite store exposes.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]core.LongTermRecord
	facts   map[string]core.CanonFact
	closed  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]core.LongTermRecord),
		facts:   make(map[string]core.CanonFact),
	}
}

func (f *fakeStore) SaveRecord(_ context.Context, rec core.LongTermRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeStore) LoadRecords(_ context.Context) ([]core.LongTermRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := make([]core.LongTermRecord, 0, len(f.records))
	for _, rec := range f.records {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (f *fakeStore) DeleteRecord(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeStore) SaveFact(_ context.Context, fact core.CanonFact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facts[fact.Key] = fact
	return nil
}

func (f *fakeStore) LoadFacts(_ context.Context) ([]core.CanonFact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	facts := make([]core.CanonFact, 0, len(f.facts))
	for _, fact := range f.facts {
		facts = append(facts, fact)
	}
	return facts, nil
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

var (
	_ core.RecordStore = (*fakeStore)(nil)
	_ core.CanonStore  = (*fakeStore)(nil)
)

func fakeOpener(stores map[string]*fakeStore) StoreOpener {
	return func(sessionID string) (core.RecordStore, core.CanonStore, func() error, error) {
		s, ok := stores[sessionID]
		if !ok {
			s = newFakeStore()
			stores[sessionID] = s
		}
		return s, s, s.Close, nil
	}
}

func TestManager_GetIsLazyAndStable(t *testing.T) {
	m := NewManager(WithConfig(testutil.TestConfig()))

	assert.Empty(t, m.Sessions())

	first, err := m.Get(context.Background(), "alpha")
	require.NoError(t, err)
	again, err := m.Get(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, []string{"alpha"}, m.Sessions())
}

func TestManager_CreateRejectsDuplicates(t *testing.T) {
	m := NewManager(WithConfig(testutil.TestConfig()))

	_, err := m.Create(context.Background(), "alpha")
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "alpha")
	assert.ErrorContains(t, err, "already exists")
}

func TestManager_EndUnknownSession(t *testing.T) {
	m := NewManager(WithConfig(testutil.TestConfig()))
	_, err := m.End(context.Background(), "ghost")
	assert.ErrorContains(t, err, "unknown session")
}

func TestManager_EndFlushesAndClosesStore(t *testing.T) {
	stores := make(map[string]*fakeStore)
	m := NewManager(
		WithConfig(testutil.TestConfig()),
		WithStoreOpener(fakeOpener(stores)),
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)

	sess, err := m.Get(context.Background(), "alpha")
	require.NoError(t, err)

	ev := testutil.NewEventBuilder().ID("ev-1").Emotion("happy", 0.8).Tags("music").Build()
	_, err = sess.ProcessTurn(context.Background(), ev)
	require.NoError(t, err)

	res, err := m.End(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Promoted)

	store := stores["alpha"]
	assert.True(t, store.closed)
	assert.Len(t, store.records, 1)
	assert.Empty(t, m.Sessions())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := NewManager(WithConfig(testutil.TestConfig()))

	alpha, err := m.Get(context.Background(), "alpha")
	require.NoError(t, err)
	beta, err := m.Get(context.Background(), "beta")
	require.NoError(t, err)

	ev := testutil.NewEventBuilder().ID("ev-1").Emotion("happy", 0.6).Tags("music").Build()
	_, err = alpha.ProcessTurn(context.Background(), ev)
	require.NoError(t, err)

	assert.Len(t, alpha.Introspect().ShortTerm, 1)
	assert.Empty(t, beta.Introspect().ShortTerm)
	assert.Equal(t, []string{"alpha", "beta"}, m.Sessions())
}

func TestSession_SetFactWritesThrough(t *testing.T) {
	stores := make(map[string]*fakeStore)
	m := NewManager(
		WithConfig(testutil.TestConfig()),
		WithStoreOpener(fakeOpener(stores)),
	)

	sess, err := m.Get(context.Background(), "alpha")
	require.NoError(t, err)
	require.NoError(t, sess.SetFact(context.Background(), "name", "Aria", true))

	stored := stores["alpha"].facts["name"]
	assert.Equal(t, "Aria", stored.Value)
	assert.True(t, stored.Locked)
}

func TestManager_ReopenedSessionRecoversCanon(t *testing.T) {
	stores := make(map[string]*fakeStore)
	opener := fakeOpener(stores)

	first := NewManager(WithConfig(testutil.TestConfig()), WithStoreOpener(opener))
	sess, err := first.Get(context.Background(), "alpha")
	require.NoError(t, err)
	require.NoError(t, sess.SetFact(context.Background(), "name", "Aria", true))

	ev := testutil.NewEventBuilder().ID("ev-1").Emotion("happy", 0.8).Tags("music").Build()
	_, err = sess.ProcessTurn(context.Background(), ev)
	require.NoError(t, err)
	_, err = first.End(context.Background(), "alpha")
	require.NoError(t, err)

	// A new manager over the same store sees the canon and the records.
	second := NewManager(WithConfig(testutil.TestConfig()), WithStoreOpener(opener))
	reopened, err := second.Get(context.Background(), "alpha")
	require.NoError(t, err)

	fact, ok := reopened.Ledger().Fact("name")
	require.True(t, ok)
	assert.Equal(t, "Aria", fact.Value)
	assert.True(t, fact.Locked)
	assert.Equal(t, 1, reopened.Memory().RecordCount())
}

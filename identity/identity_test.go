package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/personamesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFact_LockedFactsAreImmutable(t *testing.T) {
	l := NewLedger(120)

	require.NoError(t, l.SetFact("name", "Aria", true))
	err := l.SetFact("name", "Bob", false)
	require.Error(t, err)

	f, ok := l.Fact("name")
	require.True(t, ok)
	assert.Equal(t, "Aria", f.Value)
	assert.True(t, f.Locked)
}

func TestSetFact_LockingAnUnlockedFact(t *testing.T) {
	l := NewLedger(120)

	require.NoError(t, l.SetFact("hobby", "stargazing", false))
	require.NoError(t, l.SetFact("hobby", "astronomy", true))

	f, _ := l.Fact("hobby")
	assert.Equal(t, "astronomy", f.Value)
	assert.True(t, f.Locked)

	assert.Error(t, l.SetFact("", "x", false))
}

func TestFacts_SortedByKey(t *testing.T) {
	l := NewLedger(120)
	require.NoError(t, l.SetFact("b", "2", false))
	require.NoError(t, l.SetFact("a", "1", false))
	require.NoError(t, l.SetFact("c", "3", false))

	facts := l.Facts()
	require.Len(t, facts, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{facts[0].Key, facts[1].Key, facts[2].Key})
}

func TestGuard_FlagsContradictions(t *testing.T) {
	l := NewLedger(120)
	require.NoError(t, l.SetFact("name", "Aria", true))

	res := l.Guard("your name is Bob")
	require.False(t, res.Consistent)
	assert.Equal(t, "name", res.Key)
	assert.Equal(t, "Aria", res.Expected)

	assert.True(t, l.Guard("your name is Aria").Consistent)
	assert.True(t, l.Guard("YOUR NAME IS ARIA").Consistent)
	assert.True(t, l.Guard("nothing relevant here").Consistent)
}

func TestGuard_UnderscoreKeysMatchSpacedTopics(t *testing.T) {
	l := NewLedger(120)
	require.NoError(t, l.SetFact("favorite_color", "blue", true))

	res := l.Guard("my favorite color is red")
	require.False(t, res.Consistent)
	assert.Equal(t, "favorite_color", res.Key)
}

func TestGuard_UnlockedFactsAreAdvisoryOnly(t *testing.T) {
	l := NewLedger(120)
	require.NoError(t, l.SetFact("mood_today", "sunny", false))
	assert.True(t, l.Guard("mood today is stormy").Consistent)
}

func TestCoreLine_TruncatedAtWriteTime(t *testing.T) {
	l := NewLedger(20)
	l.SetCoreLine(strings.Repeat("x", 50))
	assert.Len(t, []rune(l.CoreLine()), 20)

	// Rune safety: multi-byte characters count as one.
	l.SetCoreLine(strings.Repeat("ä", 50))
	assert.Len(t, []rune(l.CoreLine()), 20)
}

func TestRelationshipStages(t *testing.T) {
	l := NewLedger(120)

	assert.Equal(t, StageAcquaintance, l.RelationshipStage("sam"))
	line := l.RelationshipLine("sam")
	assert.Equal(t, "acquaintance of sam (closeness 0.05, trust 0.20)", line)

	require.NoError(t, l.SetRelationshipStage("sam", StageFriend))
	assert.Equal(t, StageFriend, l.RelationshipStage("sam"))
	assert.Equal(t, "friend of sam (closeness 0.15, trust 0.50)", l.RelationshipLine("sam"))

	assert.Error(t, l.SetRelationshipStage("sam", "soulmate"))
}

type fakeCanonStore struct {
	facts map[string]core.CanonFact
}

func (f *fakeCanonStore) SaveFact(_ context.Context, fact core.CanonFact) error {
	if f.facts == nil {
		f.facts = map[string]core.CanonFact{}
	}
	f.facts[fact.Key] = fact
	return nil
}

func (f *fakeCanonStore) LoadFacts(_ context.Context) ([]core.CanonFact, error) {
	out := make([]core.CanonFact, 0, len(f.facts))
	for _, fact := range f.facts {
		out = append(out, fact)
	}
	return out, nil
}

func TestSyncAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &fakeCanonStore{}

	l := NewLedger(120)
	require.NoError(t, l.SetFact("name", "Aria", true))
	require.NoError(t, l.SetFact("home", "the lighthouse", false))
	require.NoError(t, l.SyncTo(ctx, store))

	restored := NewLedger(120)
	require.NoError(t, restored.LoadFrom(ctx, store))
	assert.Equal(t, l.Facts(), restored.Facts())

	// Locked state survives the round trip.
	assert.Error(t, restored.SetFact("name", "Bob", false))
}

package core

import (
	"errors"
	"strings"
	"testing"
)

func TestContextBundle_RenderCanonicalForm(t *testing.T) {
	b := ContextBundle{
		IdentityLine:     "Aria, keeper of the lighthouse",
		RelationshipLine: "friend of sam (closeness 0.15, trust 0.50)",
		MoodHint:         "feeling sad, intensity 0.50, valence -0.20",
		MemoryHighlights: []string{"talked about family (sad)", "talked about music (happy)"},
		DriveHint:        "drawn toward comfort (0.55)",
	}

	want := "identity: Aria, keeper of the lighthouse\n" +
		"relationship: friend of sam (closeness 0.15, trust 0.50)\n" +
		"mood: feeling sad, intensity 0.50, valence -0.20\n" +
		"memory:\n" +
		"- talked about family (sad)\n" +
		"- talked about music (happy)\n" +
		"drives: drawn toward comfort (0.55)\n"

	if got := b.Render(); got != want {
		t.Fatalf("Render mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if b.Render() != b.Render() {
		t.Fatal("Render is not deterministic")
	}
}

func TestContextBundle_RenderOmitsEmptySections(t *testing.T) {
	b := ContextBundle{MoodHint: "feeling curious, intensity 0.40, valence +0.10"}
	got := b.Render()
	if strings.Contains(got, "identity:") || strings.Contains(got, "memory:") {
		t.Fatalf("empty sections rendered: %q", got)
	}
	if b.Empty() {
		t.Fatal("bundle with mood hint reported empty")
	}
	if !(ContextBundle{}).Empty() {
		t.Fatal("zero bundle not reported empty")
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"a":     1,
		"abcd":  1,
		"abcde": 2,
	}
	for in, want := range cases {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestAffectSnapshot_StrongestSecondaryDeterministic(t *testing.T) {
	s := AffectSnapshot{Secondary: map[string]float64{"warm": 0.3, "tired": 0.3, "alert": 0.1}}
	for i := 0; i < 10; i++ {
		name, level := s.StrongestSecondary()
		if name != "tired" || level != 0.3 {
			t.Fatalf("tie not broken lexicographically: %s %f", name, level)
		}
	}

	empty := AffectSnapshot{}
	if name, level := empty.StrongestSecondary(); name != "" || level != 0 {
		t.Fatalf("empty secondary should yield zero value, got %s %f", name, level)
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent("ref-1", AffectDelta{Emotion: "happy", Intensity: 0.5}, "music")
	if e.ID == "" || e.Timestamp.IsZero() || e.TextRef != "ref-1" {
		t.Fatalf("NewEvent did not initialize fields correctly: %+v", e)
	}
	if len(e.TopicTags) != 1 || e.TopicTags[0] != "music" {
		t.Fatalf("tags not carried: %+v", e.TopicTags)
	}
	if NewID() == NewID() {
		t.Error("expected unique IDs")
	}
}

func TestLongTermRecord_HasTag(t *testing.T) {
	r := LongTermRecord{Tags: []string{"music", "family"}}
	if !r.HasTag("music") || r.HasTag("books") {
		t.Fatalf("HasTag misbehaved: %+v", r.Tags)
	}
}

func TestGuardResultConstructors(t *testing.T) {
	if !Consistent().Consistent {
		t.Fatal("Consistent() must be consistent")
	}
	v := Violation("name", "Aria", "my name is Bob")
	if v.Consistent || v.Key != "name" || v.Expected != "Aria" {
		t.Fatalf("Violation malformed: %+v", v)
	}
}

func TestGuardResult_Err(t *testing.T) {
	if err := Consistent().Err(); err != nil {
		t.Fatalf("consistent result produced error: %v", err)
	}

	err := Violation("name", "Aria", "my name is Bob").Err()
	var cv *CanonViolationError
	if !errors.As(err, &cv) {
		t.Fatalf("want *CanonViolationError, got %T", err)
	}
	if cv.Result.Key != "name" || cv.Result.Expected != "Aria" {
		t.Fatalf("violation payload malformed: %+v", cv.Result)
	}
	if !strings.Contains(err.Error(), "Aria") {
		t.Fatalf("error text missing expected value: %q", err.Error())
	}
}

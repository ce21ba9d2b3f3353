package core

import "strings"

// ContextBundle is the single fused context object handed to the external
// text-generation backend. It is rebuilt on every turn and owned by the caller
// after return. SizeInTokens is the estimated size of the serialized form and
// never exceeds the budget the bundle was composed under.
type ContextBundle struct {
	IdentityLine     string   `json:"identity_line,omitempty"`
	RelationshipLine string   `json:"relationship_line,omitempty"`
	MoodHint         string   `json:"mood_hint,omitempty"`
	MemoryHighlights []string `json:"memory_highlights,omitempty"`
	DriveHint        string   `json:"drive_hint,omitempty"`
	SizeInTokens     int      `json:"size_in_tokens"`
}

// Render serializes the bundle into its canonical text form, the exact bytes
// the generation backend receives. Identical bundles render identically.
func (b ContextBundle) Render() string {
	var sb strings.Builder
	if b.IdentityLine != "" {
		sb.WriteString("identity: " + b.IdentityLine + "\n")
	}
	if b.RelationshipLine != "" {
		sb.WriteString("relationship: " + b.RelationshipLine + "\n")
	}
	if b.MoodHint != "" {
		sb.WriteString("mood: " + b.MoodHint + "\n")
	}
	if len(b.MemoryHighlights) > 0 {
		sb.WriteString("memory:\n")
		for _, h := range b.MemoryHighlights {
			sb.WriteString("- " + h + "\n")
		}
	}
	if b.DriveHint != "" {
		sb.WriteString("drives: " + b.DriveHint + "\n")
	}
	return sb.String()
}

// Empty reports whether the bundle carries no content at all.
func (b ContextBundle) Empty() bool {
	return b.IdentityLine == "" && b.RelationshipLine == "" && b.MoodHint == "" &&
		len(b.MemoryHighlights) == 0 && b.DriveHint == ""
}

// EstimateTokens approximates the token count of a string using the common
// four-characters-per-token heuristic, rounding up.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}

package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint derives the dedup key of a long-term record from its summary
// and tags. Case, surrounding whitespace and tag order do not matter: two
// candidates describing the same thing collide on purpose.
func Fingerprint(summary string, tags []string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(summary)), " ")

	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	sort.Strings(lowered)

	sum := sha256.Sum256([]byte(normalized + "|" + strings.Join(lowered, ",")))
	return hex.EncodeToString(sum[:8])
}

// digestFingerprint keys the per-tag digest record that compression folds
// faded memories into.
func digestFingerprint(tag string) string {
	return "digest/" + strings.ToLower(tag)
}

// Package memory implements the retention store of an agent session: a
// fixed-capacity short-term window plus a weighted set of long-term records.
//
// Appends never silently drop data. When the window is full the oldest entry
// is evicted into a pending-candidate queue that the consolidation scheduler
// drains, so every entry gets a promotion-or-discard decision. Long-term
// records deduplicate on a summary+tags fingerprint: promoting a candidate
// whose fingerprint already exists reinforces the existing record instead of
// creating a second one.
//
// Weight changes keep decay and reinforcement strictly separate. Decay
// recomputes the current weight from the weight at last reinforcement and the
// elapsed time since then, which makes a decay pass idempotent for a given
// clock reading; reinforcement raises the base and resets the clock.
package memory

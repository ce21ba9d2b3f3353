// Package affect owns the mutable emotional state of an agent session: the
// current primary emotion with its intensity and secondary shades, plus the
// slower-moving mood trend. The State type is the single writer; every other
// component reads immutable snapshots.
//
// Intensity decays exponentially toward a neutral baseline with elapsed time,
// so arbitrarily long gaps between events compose predictably: decaying by
// t1 then t2 equals decaying by t1+t2. Mood follows the primary emotion's
// valence/arousal coordinates by exponential moving average rather than being
// replaced outright.
package affect

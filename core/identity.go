package core

// CanonFact is a canonical identity fact. Once Locked it is immutable and must
// never be contradicted by engine output; only the identity ledger writes
// canon facts, every other component reads.
type CanonFact struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

// GuardResult classifies a candidate statement against the locked canon. The
// result is advisory: the ledger never rewrites the statement, callers decide
// whether to suppress or rephrase.
type GuardResult struct {
	Consistent bool   `json:"consistent"`
	Key        string `json:"key,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Candidate  string `json:"candidate,omitempty"`
}

// Consistent is the zero-conflict guard result.
func Consistent() GuardResult { return GuardResult{Consistent: true} }

// Violation builds a guard result flagging a conflict with a locked fact.
func Violation(key, expected, candidate string) GuardResult {
	return GuardResult{Key: key, Expected: expected, Candidate: candidate}
}

// Err wraps a violation as a *CanonViolationError for errors.As callers.
// Returns nil when the result is consistent.
func (g GuardResult) Err() error {
	if g.Consistent {
		return nil
	}
	return &CanonViolationError{Result: g}
}

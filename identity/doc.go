// Package identity holds the canonical facts and relationship state of an
// agent session. Locked canon facts are immutable and must never be
// contradicted by engine output; the ledger's Guard classifies candidate
// statements against them without ever rewriting anything. Identity and
// relationship lines are capped at write time so readers always receive
// strings that fit the fusion budget math.
package identity

// Package session wires one fully isolated component stack per conversation:
// affect state, drive engine, identity ledger, memory store, consolidation
// scheduler, fusion composer and the turn router that sequences them. Nothing
// is shared between sessions; ending a session flushes its memory through a
// final consolidation pass.
//
// The Manager is the only entry point higher layers need. It lazily creates
// sessions on Get, hands every turn to the session's router, and optionally
// attaches a persistent store (e.g. memory/sqlite) per session via
// WithStoreOpener.
package session

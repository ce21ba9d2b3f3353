// Package core provides the foundational domain types and interfaces used by
// PersonaMesh. It defines the shared contracts for:
//
//   - Events (immutable interaction records entering the engine)
//   - Snapshot types (read-only views of affect, mood and drive state)
//   - Short-term entries and long-term records (the retention data model)
//   - Canon facts and guard results (identity consistency)
//   - The ContextBundle produced by fusion for the generation backend
//   - Pluggable stores for durable records and canon facts
//
// The package intentionally keeps implementation concerns (retention policy,
// decay math, scheduling, persistence) out of scope, exposing small types and
// interfaces so component packages stay decoupled. Snapshot types are plain
// value types: the owning component is the only writer, readers always receive
// copies.
package core

// Package drive tracks the motivational levels of an agent session: higher
// level behavioral forces (curiosity, bonding, comfort, ...) distinct from
// emotions. Each update moves every drive toward a target shaped by the
// current affect snapshot, the continuity trend and elapsed idle time.
// Outputs are read-only hints consumed by fusion.
package drive

// Package gate is the single integration point for feature gating: it
// combines the tier limit table, the derived subscription state and the
// usage counters into one structured allow/deny decision.
//
// The engine is a pure functional core. It holds no mutable state beyond
// startup-registered counters, performs no I/O and takes both the
// entitlement snapshot and the evaluation time as arguments, so it can be
// called on every keystroke of a gated editor without side effects.
package gate

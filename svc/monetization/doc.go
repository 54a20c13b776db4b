// Package monetization is the stateful shell around the pure gating core in
// pkg/gate, pkg/entitlement and pkg/adfreq. It owns persistence, the cached
// entitlement snapshot, analytics emission and change notification, and is
// the only component the rest of the app talks to.
//
// The shell refreshes its snapshot at well-defined points (construction,
// OnForeground, after every mutation) so the query surface never performs
// I/O. All mutations of the entitlement record run under a single mutex:
// two concurrent usage recordings cannot both observe the pre-increment
// value and silently drop one unit.
//
// An optional chi router exposes the engine over a local HTTP bridge for
// app shells that prefer talking JSON over linking the packages directly.
package monetization

// Package entitlement holds the single user's monetization record and the
// subscription/trial state machine derived from it.
//
// The record is an immutable value: mutators such as StartTrial and
// ActivateSubscription return new copies, and there is no persisted "current
// state" field. The effective state, tier and premium flag are recomputed
// from the stored dates on every query via the *At(now) methods, which also
// makes the whole package testable with fixed clock values.
//
// Monthly usage counters live on the record and reset on calendar-month
// boundaries. The counters are limit-agnostic: enforcement is the gate
// engine's responsibility, incrementing is unconditional.
//
// Persistence goes through the Store interface. FileStore keeps the record
// as a local JSON document with atomic writes and fails soft on corruption
// by resetting to Free() and re-persisting.
package entitlement

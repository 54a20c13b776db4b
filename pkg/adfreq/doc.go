// Package adfreq rations advertisement display per placement: a daily
// impression cap plus a minimum interval between impressions, independent of
// feature gating.
//
// Placement configuration (cap, interval, format) is static data loaded from
// an embedded YAML table, optionally overridden by a file. The mutable
// counters are Record values keyed by placement ID and persisted as a single
// JSON document; entries untouched for the retention window are pruned at
// initialization.
//
// Only rendered impressions consume budget: RecordShownAt is called after
// the ad renders, and a failed ad load leaves the counters untouched.
package adfreq

// Package tier defines the pricing tiers of the app and the static limit
// table mapping each tier to its numeric caps and capability flags.
//
// The table is the single source of truth for limits: every other component
// resolves caps through ForTier, FeatureLimit and HasCapability instead of
// hard-coding values. A numeric limit of -1 (Unlimited) means no cap.
//
//	limits := tier.ForTier(tier.TierFree)
//	if tier.IsUnlimited(limits.MaxNotes) {
//		// no cap on notes
//	}
package tier

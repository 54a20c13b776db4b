package tier

// Tier represents a pricing plan level.
type Tier string

const (
	TierFree       Tier = "free"
	TierPremium    Tier = "premium"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Unlimited indicates no limit for a numeric cap (-1 chosen to match
// provider-side plan configs).
const Unlimited int64 = -1

// Limits describes the numeric caps and capability flags for a single tier.
// Exactly one Limits value exists per tier and is never mutated at runtime.
type Limits struct {
	MaxNotes              int64
	MaxVoiceNotesPerMonth int64
	MaxExportsPerMonth    int64
	MaxAttachmentsPerNote int64
	MaxAttachmentSizeMB   int64
	MaxSyncDevices        int64

	HasCloudSync            bool
	HasAdvancedDrawingTools bool
	IsAdFree                bool
	HasCustomThemes         bool
	HasOCRTextRecognition   bool
}

// limitsTable is the single source of truth for per-tier limits.
// No other component may hard-code a limit value.
var limitsTable = map[Tier]Limits{
	TierFree: {
		MaxNotes:              100,
		MaxVoiceNotesPerMonth: 10,
		MaxExportsPerMonth:    5,
		MaxAttachmentsPerNote: 3,
		MaxAttachmentSizeMB:   10,
		MaxSyncDevices:        1,
	},
	TierPremium: {
		MaxNotes:              Unlimited,
		MaxVoiceNotesPerMonth: Unlimited,
		MaxExportsPerMonth:    Unlimited,
		MaxAttachmentsPerNote: 10,
		MaxAttachmentSizeMB:   50,
		MaxSyncDevices:        3,

		HasCloudSync:            true,
		HasAdvancedDrawingTools: true,
		IsAdFree:                true,
		HasCustomThemes:         true,
		HasOCRTextRecognition:   false,
	},
	TierPro: {
		MaxNotes:              Unlimited,
		MaxVoiceNotesPerMonth: Unlimited,
		MaxExportsPerMonth:    Unlimited,
		MaxAttachmentsPerNote: Unlimited,
		MaxAttachmentSizeMB:   200,
		MaxSyncDevices:        10,

		HasCloudSync:            true,
		HasAdvancedDrawingTools: true,
		IsAdFree:                true,
		HasCustomThemes:         true,
		HasOCRTextRecognition:   true,
	},
	TierEnterprise: {
		MaxNotes:              Unlimited,
		MaxVoiceNotesPerMonth: Unlimited,
		MaxExportsPerMonth:    Unlimited,
		MaxAttachmentsPerNote: Unlimited,
		MaxAttachmentSizeMB:   Unlimited,
		MaxSyncDevices:        Unlimited,

		HasCloudSync:            true,
		HasAdvancedDrawingTools: true,
		IsAdFree:                true,
		HasCustomThemes:         true,
		HasOCRTextRecognition:   true,
	},
}

// ForTier returns the limits for the given tier.
// Unknown tiers fall back to the free tier so callers always receive the
// most restrictive safe configuration.
func ForTier(t Tier) Limits {
	if l, ok := limitsTable[t]; ok {
		return l
	}
	return limitsTable[TierFree]
}

// IsUnlimited reports whether a numeric limit value means "no limit".
func IsUnlimited(n int64) bool {
	return n == Unlimited
}

// FeatureLimit returns the numeric cap for a counted feature under the given
// tier, or Unlimited for capability features that have no numeric cap.
func FeatureLimit(t Tier, f Feature) int64 {
	l := ForTier(t)
	switch f {
	case FeatureNotes:
		return l.MaxNotes
	case FeatureVoiceNotes:
		return l.MaxVoiceNotesPerMonth
	case FeatureExports:
		return l.MaxExportsPerMonth
	case FeatureAttachments:
		return l.MaxAttachmentsPerNote
	case FeatureAttachmentSize:
		return l.MaxAttachmentSizeMB
	case FeatureSyncDevices:
		return l.MaxSyncDevices
	default:
		return Unlimited
	}
}

// HasCapability reports whether the boolean capability flag for the feature
// is enabled under the given tier. Counted features are always "present";
// their availability is governed by FeatureLimit instead.
func HasCapability(t Tier, f Feature) bool {
	l := ForTier(t)
	switch f {
	case FeatureCloudSync:
		return l.HasCloudSync
	case FeatureAdvancedDrawing:
		return l.HasAdvancedDrawingTools
	case FeatureAdFree:
		return l.IsAdFree
	case FeatureCustomThemes:
		return l.HasCustomThemes
	case FeatureOCR:
		return l.HasOCRTextRecognition
	default:
		return true
	}
}

package tier

// Feature identifies a gated app feature.
type Feature string

const (
	FeatureNotes           Feature = "notes"
	FeatureVoiceNotes      Feature = "voice_notes"
	FeatureExports         Feature = "exports"
	FeatureAttachments     Feature = "attachments"
	FeatureAttachmentSize  Feature = "attachment_size"
	FeatureSyncDevices     Feature = "sync_devices"
	FeatureCloudSync       Feature = "cloud_sync"
	FeatureAdvancedDrawing Feature = "advanced_drawing"
	FeatureCustomThemes    Feature = "custom_themes"
	FeatureOCR             Feature = "ocr"
	FeatureAdFree          Feature = "ad_free"
)

// FeatureKind classifies how a feature is limited.
type FeatureKind string

const (
	// KindCountedTotal features are capped on a running total (e.g. notes
	// currently stored), counted by the application.
	KindCountedTotal FeatureKind = "counted_total"
	// KindCountedMonthly features are capped per calendar month and tracked
	// by the entitlement record's usage counters.
	KindCountedMonthly FeatureKind = "counted_monthly"
	// KindCapability features are simple on/off flags per tier.
	KindCapability FeatureKind = "capability"
)

// FeatureMeta holds display metadata for a feature. Keeping it in one table
// avoids enum switches scattered across UI and engine code.
type FeatureMeta struct {
	Feature     Feature
	Kind        FeatureKind
	DisplayName string
	Description string
}

var featureMeta = map[Feature]FeatureMeta{
	FeatureNotes: {
		Feature:     FeatureNotes,
		Kind:        KindCountedTotal,
		DisplayName: "Notes",
		Description: "Total notes stored on this device",
	},
	FeatureVoiceNotes: {
		Feature:     FeatureVoiceNotes,
		Kind:        KindCountedMonthly,
		DisplayName: "Voice Notes",
		Description: "Voice recordings per month",
	},
	FeatureExports: {
		Feature:     FeatureExports,
		Kind:        KindCountedMonthly,
		DisplayName: "Exports",
		Description: "PDF and markdown exports per month",
	},
	FeatureAttachments: {
		Feature:     FeatureAttachments,
		Kind:        KindCountedTotal,
		DisplayName: "Attachments",
		Description: "Attachments per note",
	},
	FeatureAttachmentSize: {
		Feature:     FeatureAttachmentSize,
		Kind:        KindCountedTotal,
		DisplayName: "Attachment Size",
		Description: "Maximum attachment size in MB",
	},
	FeatureSyncDevices: {
		Feature:     FeatureSyncDevices,
		Kind:        KindCountedTotal,
		DisplayName: "Sync Devices",
		Description: "Devices linked for sync",
	},
	FeatureCloudSync: {
		Feature:     FeatureCloudSync,
		Kind:        KindCapability,
		DisplayName: "Cloud Sync",
		Description: "Back up and sync notes across devices",
	},
	FeatureAdvancedDrawing: {
		Feature:     FeatureAdvancedDrawing,
		Kind:        KindCapability,
		DisplayName: "Advanced Drawing",
		Description: "Extra brushes, layers and shape tools",
	},
	FeatureCustomThemes: {
		Feature:     FeatureCustomThemes,
		Kind:        KindCapability,
		DisplayName: "Custom Themes",
		Description: "Custom colors and dark theme variants",
	},
	FeatureOCR: {
		Feature:     FeatureOCR,
		Kind:        KindCapability,
		DisplayName: "Text Recognition",
		Description: "Extract text from images and handwriting",
	},
	FeatureAdFree: {
		Feature:     FeatureAdFree,
		Kind:        KindCapability,
		DisplayName: "Ad-Free",
		Description: "Remove all advertisements",
	},
}

// Meta returns display metadata for the feature.
// Unknown features return a zero-valued capability entry.
func Meta(f Feature) FeatureMeta {
	if m, ok := featureMeta[f]; ok {
		return m
	}
	return FeatureMeta{Feature: f, Kind: KindCapability, DisplayName: string(f)}
}

// Features returns all known features. The slice is a copy.
func Features() []Feature {
	out := make([]Feature, 0, len(featureMeta))
	for f := range featureMeta {
		out = append(out, f)
	}
	return out
}

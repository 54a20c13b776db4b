package entitlement

import "context"

// Store persists the single UserEntitlements record.
//
// Load never fails hard: implementations recover from corrupted or missing
// documents by falling back to Free() so the app always starts with a safe,
// most-restrictive record. Save must be atomic from the caller's perspective:
// a concurrent Load never observes a partial write.
type Store interface {
	Load(ctx context.Context) (UserEntitlements, error)
	Save(ctx context.Context, e UserEntitlements) error
}

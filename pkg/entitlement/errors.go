package entitlement

import "errors"

var (
	ErrTrialNotAvailable       = errors.New("entitlement: free trial not available")
	ErrInvalidTrialLength      = errors.New("entitlement: trial length must be positive")
	ErrInvalidSubscriptionType = errors.New("entitlement: invalid subscription type for activation")

	ErrStorePathRequired = errors.New("entitlement: store path is required")
	ErrFailedToPersist   = errors.New("entitlement: failed to persist record")
)

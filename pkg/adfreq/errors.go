package adfreq

import "errors"

var (
	ErrPlacementNotFound      = errors.New("adfreq: unknown ad placement")
	ErrInvalidPlacementConfig = errors.New("adfreq: invalid placement configuration")
	ErrStorePathRequired      = errors.New("adfreq: store path is required")
	ErrFailedToPersist        = errors.New("adfreq: failed to persist impression records")
)

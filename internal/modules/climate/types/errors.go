package types

import "errors"

var (
	// ErrEmptyDataset is returned when the store holds no measurements, which
	// leaves the latest observation date undefined.
	ErrEmptyDataset = errors.New("observation store holds no measurements")

	// ErrStoreUnavailable wraps every connectivity or query failure against
	// the observation store. Callers are not expected to retry.
	ErrStoreUnavailable = errors.New("observation store unavailable")
)

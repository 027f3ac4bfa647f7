package contract

import "errors"

// Error classes reported while ingesting observations. Everything except ErrStoreOpen
// drops the observation at hand and lets processing continue.
var (
	// ErrClassification means a path does not resolve to any configured domain and project.
	ErrClassification = errors.New("cannot classify path")

	// ErrCapacityExceeded means a resolved domain or project ID is beyond the configured capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrPersistence means schema creation, lookup, insert or update failed, lock timeouts included.
	ErrPersistence = errors.New("persistence failure")

	// ErrStoreOpen means the store could not be opened. It is fatal at startup.
	ErrStoreOpen = errors.New("cannot open store")

	// ErrMalformedObservation means an input line is not a usable observation.
	ErrMalformedObservation = errors.New("malformed observation")

	// ErrIntegrityAnomaly means more than one row matched a key that should be unique.
	ErrIntegrityAnomaly = errors.New("integrity anomaly")
)

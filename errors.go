package keysplit

import "github.com/arloliu/keysplit/types"

// Sentinel errors, re-exported from the types package.
var (
	// ErrInvalidKeyConstruction is returned when a key cannot be built from the supplied elements.
	ErrInvalidKeyConstruction = types.ErrInvalidKeyConstruction

	// ErrDuplicateDimension is returned when two elements of one key share a dimension.
	ErrDuplicateDimension = types.ErrDuplicateDimension

	// ErrDimensionMismatch is returned when elements of different dimensions are compared.
	ErrDimensionMismatch = types.ErrDimensionMismatch

	// ErrUnknownDimension is returned for a dimension the keyspace or filter does not know.
	ErrUnknownDimension = types.ErrUnknownDimension

	// ErrConstraintViolation is returned when partition-count bounds cannot be satisfied.
	ErrConstraintViolation = types.ErrConstraintViolation

	// ErrDuplicateRegistration is returned when a dimension, filter or entry is registered twice.
	ErrDuplicateRegistration = types.ErrDuplicateRegistration

	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrNoWorkersAvailable is returned when trying to assign partitions with no workers.
	ErrNoWorkersAvailable = types.ErrNoWorkersAvailable

	// ErrPublishFailed is returned when publishing a plan fails.
	ErrPublishFailed = types.ErrPublishFailed

	// ErrNoKeysFound is returned when no plan or key is stored where one was expected.
	ErrNoKeysFound = types.ErrNoKeysFound
)

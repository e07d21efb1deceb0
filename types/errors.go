package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the keysplit library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap them with context using fmt.Errorf("%w: ...", err).
//
// None of these errors are transient. They are raised either while a planning or
// diff pass is being configured, or when a caller violates an API contract.

// Key model errors.
var (
	// ErrInvalidKeyConstruction is returned when a key cannot be built from the supplied elements.
	ErrInvalidKeyConstruction = errors.New("invalid key construction")

	// ErrDuplicateDimension is returned when two elements of one key share a dimension.
	ErrDuplicateDimension = fmt.Errorf("%w: duplicate dimension", ErrInvalidKeyConstruction)

	// ErrDimensionMismatch is returned when elements of different dimensions are compared,
	// or an element is registered with a filter of another dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrUnknownDimension is returned when an operation addresses a dimension that is
	// absent from a keyspace, filter or partitioner.
	ErrUnknownDimension = errors.New("unknown dimension")
)

// Planning errors.
var (
	// ErrConstraintViolation is returned when partition-count bounds cannot be satisfied.
	// Use errors.As with *ConstraintError to get the offending dimension and bound.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrDuplicateRegistration is returned when a second filter, dimension or entry is
	// registered under a name that is already taken.
	ErrDuplicateRegistration = errors.New("duplicate registration")

	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Hand-off errors, used by strategies and the plan publisher.
var (
	// ErrNoWorkersAvailable is returned when trying to assign partitions with no workers.
	ErrNoWorkersAvailable = errors.New("no workers available")

	// ErrPublishFailed is returned when publishing a plan to NATS KV fails.
	ErrPublishFailed = errors.New("failed to publish plan")

	// ErrNoKeysFound is returned when NATS KV returns no keys (expected condition).
	ErrNoKeysFound = errors.New("no keys found")
)

// ConstraintError describes a partition-count bound that cannot be satisfied.
//
// Dimension is empty when the violated bound is the overall partition range or a
// product over all dimensions.
type ConstraintError struct {
	// Dimension is the offending dimension name ("" for overall bounds).
	Dimension string
	// Bound names the violated bound, e.g. "min", "max", "overall".
	Bound string
	// Value is the configured value of the bound.
	Value int
	// Limit is the value it conflicts with.
	Limit int
	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrConstraintViolation.Error())
	if e.Dimension != "" {
		fmt.Fprintf(&sb, ": dimension %q", e.Dimension)
	} else {
		sb.WriteString(": overall")
	}
	fmt.Fprintf(&sb, " %s=%d", e.Bound, e.Value)
	if e.Reason != "" {
		fmt.Fprintf(&sb, " %s %d", e.Reason, e.Limit)
	}

	return sb.String()
}

// Unwrap allows errors.Is(err, ErrConstraintViolation).
func (e *ConstraintError) Unwrap() error {
	return ErrConstraintViolation
}

// IsNoKeysFoundError checks if an error indicates that no keys were found in NATS KV.
//
// This function handles NATS-specific "no keys found" errors which may come as:
//   - Direct error: "nats: no keys found"
//   - Wrapped error: "failed to list KV keys: nats: no keys found"
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error indicates no keys were found, false otherwise
func IsNoKeysFoundError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNoKeysFound) {
		return true
	}

	return strings.Contains(err.Error(), "no keys found")
}

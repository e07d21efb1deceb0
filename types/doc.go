// Package types provides shared type definitions and interfaces for the keysplit library.
//
// This package contains types that are used across multiple packages. Keeping them
// here avoids import cycles between the root keysplit package, the key model, the
// partitioners and the diff engine.
//
// Key types:
//   - Sentinel errors and ConstraintError: failure taxonomy for planning and diffing
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types

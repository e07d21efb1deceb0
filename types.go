package keysplit

import (
	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/partition"
	"github.com/arloliu/keysplit/types"
)

// Re-export the key model and partition types so that callers of the Planner
// need a single import for the common cases.
type (
	Dimension          = keys.Dimension
	Element            = keys.Element
	Key                = keys.Key
	Keyspace           = keys.Keyspace
	DimensionPartition = partition.DimensionPartition
	KeyspacePartition  = partition.KeyspacePartition
	ConstraintError    = types.ConstraintError
)

// Re-export interfaces from the types package.
type (
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
)

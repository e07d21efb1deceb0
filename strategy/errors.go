package strategy

import "github.com/arloliu/keysplit/types"

// ErrNoWorkers indicates that no workers were provided for assignment.
var ErrNoWorkers = types.ErrNoWorkersAvailable

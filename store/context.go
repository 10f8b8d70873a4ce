package store

import "github.com/google/uuid"

// ExecutionContext is the run-scoped pair of stores and their template
// binding (§3 invariant: "In Completed, a single ExecutionContext
// carries the state produced during execution"). RunID tags every log
// line the pipeline driver emits for this execution, mirroring the
// teacher's ExecutionID/seqNum event-correlation fields on Pipeline
// (module/pipeline_executor.go).
type ExecutionContext struct {
	Scalars  *ScalarStore
	Tabulars *TabularStore
	RunID    string
}

// NewExecutionContext creates a fresh context with its own stores,
// bound to renderer, and a newly generated run ID.
func NewExecutionContext(renderer Renderer) *ExecutionContext {
	return &ExecutionContext{
		Scalars:  NewScalarStore(renderer),
		Tabulars: NewTabularStore(),
		RunID:    uuid.New().String(),
	}
}

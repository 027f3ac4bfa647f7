// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"github.com/huangsam/ehminer/schema"
)

// Classifier resolves filesystem paths to catalog identities.
// This allows the aggregation and engine layers to be tested with a fixed catalog.
type Classifier interface {
	// Classify resolves a path to its (domain, project) identity. It returns an error
	// wrapping ErrClassification or ErrCapacityExceeded when the path cannot be used.
	Classify(path string) (schema.Identity, error)

	// IsOutOfProject reports whether defLocation lives outside the identity's
	// domain and project hierarchy.
	IsOutOfProject(defLocation string, id schema.Identity) bool
}

// ObservationStore defines the durable side of the engine.
// This allows mocking the store for testing.
type ObservationStore interface {
	// RecordCallInfo mirrors the in-memory call aggregate with a natural-key upsert on call name.
	RecordCallInfo(obs schema.CallObservation) error

	// RecordFunctionCall appends a raw call site and upserts its call_statistic counter.
	RecordFunctionCall(id schema.Identity, call schema.FunctionCall) error

	// RecordBranchCall appends one branch-guarded call.
	RecordBranchCall(id schema.Identity, call schema.BranchCall) error

	// RecordPrebranch upserts the co-occurrence counter of a call and a logging call.
	RecordPrebranch(id schema.Identity, co schema.CoOccurrence) error

	// RecordPostbranch upserts the predecessor set of a logging call.
	RecordPostbranch(id schema.Identity, co schema.CoOccurrence) error

	// RecordCallGraphEdge appends one caller -> callee edge.
	RecordCallGraphEdge(id schema.Identity, edge schema.CallGraphEdge) error

	// GetStatus returns status information about the store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// ExportSource reads persisted rows back for export.
type ExportSource interface {
	GetAllCallStatistics() ([]schema.CallStatisticRecord, error)
	GetAllCallInfo() ([]schema.CallInfoRecord, error)
	GetAllCallGraphEdges() ([]schema.CallGraphRecord, error)
	GetAllPrebranch() ([]schema.PrebranchRecord, error)
	GetAllPostbranch() ([]schema.PostbranchRecord, error)
	GetAllBranchCalls() ([]schema.BranchCallRecord, error)
}

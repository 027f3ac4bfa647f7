// Package core has the ingestion engine: classification, aggregation and recording of
// call observations.
package core

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/huangsam/ehminer/internal/aggregate"
	"github.com/huangsam/ehminer/internal/catalog"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
	"github.com/zeebo/xxh3"
)

// Engine routes observations to the aggregator and the enabled recorders.
// It is not safe for concurrent use; Ingest guarantees a single caller.
type Engine struct {
	cfg     *contract.Config
	catalog *catalog.Catalog
	agg     *aggregate.Aggregator
	store   contract.ObservationStore
	logger  *slog.Logger

	seen   map[uint64]struct{} // syntax units already analyzed
	stream streamState
	stats  schema.IngestStats
}

// streamState is the per-input position in the observation stream.
type streamState struct {
	skipping bool // inside a unit that was analyzed before
}

// NewEngine wires an engine around a copy of cfg. A nil logger discards diagnostics.
func NewEngine(cfg *contract.Config, cat *catalog.Catalog, store contract.ObservationStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &Engine{
		cfg:     cfg.Clone(),
		catalog: cat,
		agg:     aggregate.New(cat),
		store:   store,
		logger:  logger,
		seen:    make(map[uint64]struct{}),
	}
}

// Catalog returns the catalog paths are classified against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Aggregator returns the in-memory call statistics.
func (e *Engine) Aggregator() *aggregate.Aggregator { return e.agg }

// Stats returns a snapshot of the ingestion counters.
func (e *Engine) Stats() schema.IngestStats { return e.stats }

// unitKey identifies a syntax unit by its path. Compile flags are not part of the key:
// the same file compiled twice with different flags is still counted once.
func unitKey(path string) uint64 {
	return xxh3.HashString(path)
}

// BeginUnit marks the start of a syntax unit. It reports false when the same unit was
// already analyzed by this process, in which case its observations are skipped.
func (e *Engine) BeginUnit(path string, flags []string) bool {
	return e.beginUnit(&e.stream, path, flags)
}

func (e *Engine) beginUnit(st *streamState, path string, flags []string) bool {
	key := unitKey(path)
	if _, ok := e.seen[key]; ok {
		st.skipping = true
		e.stats.SkippedUnits++
		e.logger.Debug("unit.skip", "unit", path, "flags", flags)
		return false
	}
	e.seen[key] = struct{}{}
	st.skipping = false
	return true
}

// ObserveCall folds one call into the aggregator and mirrors it to call_info.
func (e *Engine) ObserveCall(callName, callLoc, defLoc string) error {
	if !e.enabled(schema.RecordCalls) {
		return nil
	}
	obs, err := e.agg.Observe(callName, callLoc, defLoc)
	if err != nil {
		return e.drop(schema.CallObservationKind, callName, err)
	}
	if err := e.store.RecordCallInfo(obs); err != nil {
		return e.drop(schema.CallObservationKind, callName, err)
	}
	e.stats.Accepted++
	return nil
}

// classifySite resolves a recorder's call site. Unlike ObserveCall there is no fallback
// to the definition location: a site outside the catalog is dropped.
func (e *Engine) classifySite(loc string) (schema.Identity, error) {
	id, err := e.catalog.Classify(loc)
	if err != nil {
		return schema.Identity{}, fmt.Errorf("call@%s: %w", loc, err)
	}
	return id, nil
}

// RecordFunctionCall logs one raw call site and counts it in call_statistic.
func (e *Engine) RecordFunctionCall(call schema.FunctionCall) error {
	if !e.enabled(schema.RecordFunctionCalls) {
		return nil
	}
	id, err := e.classifySite(call.CallLoc)
	if err != nil {
		return e.drop(schema.FunctionCallObservation, call.CallName, err)
	}
	return e.accept(schema.FunctionCallObservation, call.CallName, e.store.RecordFunctionCall(id, call))
}

// RecordBranchCall appends one branch-guarded call, classified by its call site.
func (e *Engine) RecordBranchCall(call schema.BranchCall) error {
	if !e.enabled(schema.RecordBranchCalls) {
		return nil
	}
	id, err := e.classifySite(call.CallID)
	if err != nil {
		return e.drop(schema.BranchCallObservation, call.CallName, err)
	}
	return e.accept(schema.BranchCallObservation, call.CallName, e.store.RecordBranchCall(id, call))
}

// RecordPrebranch counts a call seen before a logging call.
func (e *Engine) RecordPrebranch(co schema.CoOccurrence) error {
	if !e.enabled(schema.RecordPrebranch) {
		return nil
	}
	id, err := e.classifySite(co.CallLoc)
	if err != nil {
		return e.drop(schema.PrebranchObservation, co.CallName, err)
	}
	return e.accept(schema.PrebranchObservation, co.CallName, e.store.RecordPrebranch(id, co))
}

// RecordPostbranch adds a call to the predecessor set of a logging call.
func (e *Engine) RecordPostbranch(co schema.CoOccurrence) error {
	if !e.enabled(schema.RecordPostbranch) {
		return nil
	}
	id, err := e.classifySite(co.CallLoc)
	if err != nil {
		return e.drop(schema.PostbranchObservation, co.LogName, err)
	}
	return e.accept(schema.PostbranchObservation, co.LogName, e.store.RecordPostbranch(id, co))
}

// RecordEdge appends one call graph edge, classified by its call site.
func (e *Engine) RecordEdge(edge schema.CallGraphEdge) error {
	if !e.enabled(schema.RecordCallGraph) {
		return nil
	}
	id, err := e.classifySite(edge.CallLoc)
	if err != nil {
		return e.drop(schema.CallGraphObservation, edge.FuncName, err)
	}
	return e.accept(schema.CallGraphObservation, edge.FuncName, e.store.RecordCallGraphEdge(id, edge))
}

// Apply dispatches one decoded observation. Errors are already counted and logged; they
// are returned for callers that want to inspect them.
func (e *Engine) Apply(obs schema.Observation) error {
	return e.apply(&e.stream, obs)
}

func (e *Engine) apply(st *streamState, obs schema.Observation) error {
	if obs.Kind == schema.UnitObservation {
		if obs.Unit == "" {
			return e.malformed(fmt.Errorf("%w: unit without path", contract.ErrMalformedObservation))
		}
		e.beginUnit(st, obs.Unit, obs.Flags)
		return nil
	}
	if st.skipping {
		e.stats.Skipped++
		return nil
	}

	switch obs.Kind {
	case schema.CallObservationKind:
		if obs.CallName == "" {
			return e.malformed(fmt.Errorf("%w: call without name", contract.ErrMalformedObservation))
		}
		return e.ObserveCall(obs.CallName, obs.CallLoc, obs.CallDefLoc)
	case schema.FunctionCallObservation:
		return e.RecordFunctionCall(schema.FunctionCall{
			CallName:   obs.CallName,
			CallLoc:    obs.CallLoc,
			CallDefLoc: obs.CallDefLoc,
			CallStr:    obs.CallStr,
		})
	case schema.BranchCallObservation:
		if obs.Branch == nil {
			return e.malformed(fmt.Errorf("%w: branch_call without branch", contract.ErrMalformedObservation))
		}
		return e.RecordBranchCall(*obs.Branch)
	case schema.PrebranchObservation, schema.PostbranchObservation:
		co := schema.CoOccurrence{
			CallName:   obs.CallName,
			CallLoc:    obs.CallLoc,
			CallDefLoc: obs.CallDefLoc,
			LogName:    obs.LogName,
			LogDefLoc:  obs.LogDefLoc,
		}
		if obs.Kind == schema.PrebranchObservation {
			return e.RecordPrebranch(co)
		}
		return e.RecordPostbranch(co)
	case schema.CallGraphObservation:
		return e.RecordEdge(schema.CallGraphEdge{
			FuncName:   obs.FuncName,
			FuncDefLoc: obs.FuncDefLoc,
			FuncSize:   obs.FuncSize,
			CallLoc:    obs.CallLoc,
			CallName:   obs.CallName,
			CallDefLoc: obs.CallDefLoc,
		})
	default:
		return e.malformed(fmt.Errorf("%w: unknown kind %q", contract.ErrMalformedObservation, obs.Kind))
	}
}

func (e *Engine) enabled(kind schema.RecordKind) bool {
	if e.cfg.Enabled(kind) {
		return true
	}
	e.stats.Disabled++
	return false
}

func (e *Engine) accept(kind schema.ObservationKind, name string, err error) error {
	if err != nil {
		return e.drop(kind, name, err)
	}
	e.stats.Accepted++
	return nil
}

// drop counts err under its class and reports it. Processing always continues.
func (e *Engine) drop(kind schema.ObservationKind, name string, err error) error {
	var class string
	switch {
	case errors.Is(err, contract.ErrCapacityExceeded):
		e.stats.CapacityExceeded++
		class = "capacity"
	case errors.Is(err, contract.ErrClassification):
		e.stats.Unclassified++
		class = "classification"
	default:
		e.stats.PersistenceFailed++
		class = "persistence"
	}
	e.logger.Warn("observe.drop", "kind", kind, "name", name, "class", class, "error", err)
	return err
}

func (e *Engine) malformed(err error) error {
	e.stats.Malformed++
	e.logger.Warn("observe.malformed", "error", err)
	return err
}

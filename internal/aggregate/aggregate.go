// Package aggregate keeps per-call-name statistics for one analysis run.
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
)

// Aggregator accumulates CallRecords keyed by call name. It is not safe for concurrent use.
type Aggregator struct {
	classifier contract.Classifier
	index      map[string]int // call name -> position in records
	records    []*schema.CallRecord
}

// New returns an empty aggregator resolving paths through classifier.
func New(classifier contract.Classifier) *Aggregator {
	return &Aggregator{
		classifier: classifier,
		index:      make(map[string]int),
	}
}

// Resolve classifies callLocation, falling back to defLocation when the call site does
// not resolve (calls expanded from macros arrive without a usable location). A call site
// that resolves beyond the catalog capacity is not retried.
func Resolve(classifier contract.Classifier, callLocation, defLocation string) (schema.Identity, error) {
	id, err := classifier.Classify(callLocation)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, contract.ErrCapacityExceeded) {
		return schema.Identity{}, fmt.Errorf("call@%s: %w", callLocation, err)
	}
	id, fallbackErr := classifier.Classify(defLocation)
	if fallbackErr == nil {
		return id, nil
	}
	return schema.Identity{}, fmt.Errorf("call@%s def@%s: %w", callLocation, defLocation, fallbackErr)
}

// Observe records one call of callName. Observations whose paths cannot be classified,
// or whose IDs exceed the catalog capacity, are dropped and the error is returned.
func (a *Aggregator) Observe(callName, callLocation, defLocation string) (schema.CallObservation, error) {
	id, err := Resolve(a.classifier, callLocation, defLocation)
	if err != nil {
		return schema.CallObservation{}, err
	}
	obs := schema.CallObservation{
		Identity:     id,
		CallName:     callName,
		DefLocation:  defLocation,
		OutOfProject: a.classifier.IsOutOfProject(defLocation, id),
	}
	a.Apply(obs)
	return obs, nil
}

// Apply folds an already classified observation into its record.
func (a *Aggregator) Apply(obs schema.CallObservation) {
	id := obs.Identity
	pos, ok := a.index[obs.CallName]
	if !ok {
		a.records = append(a.records, &schema.CallRecord{
			ID:            len(a.records) + 1,
			CallName:      obs.CallName,
			DefLocation:   obs.DefLocation,
			OutProjectDef: obs.OutOfProject,
			NumDomain:     1,
			NumProject:    1,
			NumCallTotal:  1,
			DomainCounts:  map[int]int{id.DomainID: 1},
			ProjectCounts: map[int]int{id.ProjectID: 1},
		})
		a.index[obs.CallName] = len(a.records) - 1
		return
	}

	rec := a.records[pos]
	rec.NumCallTotal++
	if rec.DomainCounts[id.DomainID] == 0 {
		rec.NumDomain++
	}
	if rec.ProjectCounts[id.ProjectID] == 0 {
		rec.NumProject++
	}
	rec.DomainCounts[id.DomainID]++
	rec.ProjectCounts[id.ProjectID]++
	if MergeDefLocation(&rec.DefLocation, obs.DefLocation) {
		rec.MultiDef = true
	}
	// Once a definition outside the project is seen the flag stays set.
	rec.OutProjectDef = rec.OutProjectDef || obs.OutOfProject
}

// MergeDefLocation appends loc to the "#"-joined list in acc unless acc already contains
// it as a substring. It reports whether loc was appended.
func MergeDefLocation(acc *string, loc string) bool {
	if strings.Contains(*acc, loc) {
		return false
	}
	*acc += schema.DefLocationDelimiter + loc
	return true
}

// Get returns the record for callName.
func (a *Aggregator) Get(callName string) (*schema.CallRecord, bool) {
	pos, ok := a.index[callName]
	if !ok {
		return nil, false
	}
	return a.records[pos], true
}

// Records returns every record in ID order.
func (a *Aggregator) Records() []*schema.CallRecord {
	return append([]*schema.CallRecord(nil), a.records...)
}

// Len returns the number of distinct call names observed.
func (a *Aggregator) Len() int {
	return len(a.records)
}

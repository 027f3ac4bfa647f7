package persist

import (
	"database/sql"

	"github.com/huangsam/ehminer/schema"
)

// RecordPrebranch counts one sighting of a call next to a logging call. The counter is
// keyed by (CallName, CallDefLoc, DomainName, ProjectName, LogName, LogDefLoc).
func (s *Store) RecordPrebranch(id schema.Identity, co schema.CoOccurrence) error {
	return s.write("prebranch_call", []string{prebranchTable}, func(tx *sql.Tx) error {
		var rowID, numLogTime int64
		found, err := s.lookup(tx, prebranchTable, "NumLogTime",
			[]string{"CallName", "CallDefLoc", "DomainName", "ProjectName", "LogName", "LogDefLoc"},
			[]any{co.CallName, co.CallDefLoc, id.Domain, id.Project, co.LogName, co.LogDefLoc},
			&rowID, &numLogTime)
		if err != nil {
			return err
		}
		if !found {
			return s.insert(tx, prebranchTable,
				co.CallName, co.CallDefLoc, id.Domain, id.Project, co.LogName, co.LogDefLoc, int64(1))
		}
		return s.updateByID(tx, prebranchTable, rowID, []string{"NumLogTime"}, numLogTime+1)
	})
}

// RecordPostbranch adds a preceding call to the set kept for a logging call, keyed by
// (LogName, LogDefLoc, DomainName, ProjectName). NumPrebranchCall counts distinct
// predecessors while NumPostbranchCall counts every sighting.
func (s *Store) RecordPostbranch(id schema.Identity, co schema.CoOccurrence) error {
	return s.write("postbranch_call", []string{postbranchTable}, func(tx *sql.Tx) error {
		var (
			rowID, numPrebranch, numPostbranch int64
			prebranchCall                      string
		)
		found, err := s.lookup(tx, postbranchTable, "PrebranchCall, NumPrebranchCall, NumPostbranchCall",
			[]string{"LogName", "LogDefLoc", "DomainName", "ProjectName"},
			[]any{co.LogName, co.LogDefLoc, id.Domain, id.Project},
			&rowID, &prebranchCall, &numPrebranch, &numPostbranch)
		if err != nil {
			return err
		}
		if !found {
			return s.insert(tx, postbranchTable,
				co.LogName, co.LogDefLoc, id.Domain, id.Project, NewNameSet(co.CallName), int64(1), int64(1))
		}
		if NameSetAdd(&prebranchCall, co.CallName) {
			numPrebranch++
		}
		numPostbranch++
		return s.updateByID(tx, postbranchTable, rowID,
			[]string{"PrebranchCall", "NumPrebranchCall", "NumPostbranchCall"},
			prebranchCall, numPrebranch, numPostbranch)
	})
}

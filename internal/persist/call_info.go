package persist

import (
	"database/sql"

	"github.com/huangsam/ehminer/internal/aggregate"
	"github.com/huangsam/ehminer/schema"
)

// RecordCallInfo applies one classified call to the call_info mirror, keyed by call name,
// with the same increment rules as the in-memory aggregate. Per-domain and per-project
// counters live in call_info_bucket.
func (s *Store) RecordCallInfo(obs schema.CallObservation) error {
	return s.write("call_info", []string{callInfoTable, callInfoBucketTable}, func(tx *sql.Tx) error {
		var (
			id, hasOutDef, isMulDef             int64
			numDomain, numProject, numCallTotal int64
			defLoc                              string
		)
		found, err := s.lookup(tx, callInfoTable,
			"DefLoc, HasOutDef, IsMulDef, NumDomain, NumProject, NumCallTotal",
			[]string{"CallName"}, []any{obs.CallName},
			&id, &defLoc, &hasOutDef, &isMulDef, &numDomain, &numProject, &numCallTotal)
		if err != nil {
			return err
		}

		if !found {
			if err := s.insert(tx, callInfoTable,
				obs.CallName, obs.DefLocation, boolToInt(obs.OutOfProject), int64(0),
				int64(1), int64(1), int64(1)); err != nil {
				return err
			}
			if _, err := s.bumpBucket(tx, obs.CallName, domainBucket, obs.Identity.DomainID); err != nil {
				return err
			}
			_, err := s.bumpBucket(tx, obs.CallName, projectBucket, obs.Identity.ProjectID)
			return err
		}

		numCallTotal++
		prevDomain, err := s.bumpBucket(tx, obs.CallName, domainBucket, obs.Identity.DomainID)
		if err != nil {
			return err
		}
		if prevDomain == 0 {
			numDomain++
		}
		prevProject, err := s.bumpBucket(tx, obs.CallName, projectBucket, obs.Identity.ProjectID)
		if err != nil {
			return err
		}
		if prevProject == 0 {
			numProject++
		}
		if aggregate.MergeDefLocation(&defLoc, obs.DefLocation) {
			isMulDef = 1
		}
		if obs.OutOfProject {
			hasOutDef = 1
		}

		return s.updateByID(tx, callInfoTable, id,
			[]string{"DefLoc", "HasOutDef", "IsMulDef", "NumDomain", "NumProject", "NumCallTotal"},
			defLoc, hasOutDef, isMulDef, numDomain, numProject, numCallTotal)
	})
}

// bumpBucket increments one per-domain or per-project counter of callName and returns its
// value before the increment.
func (s *Store) bumpBucket(tx *sql.Tx, callName, kind string, bucketID int) (int64, error) {
	var id, count int64
	found, err := s.lookup(tx, callInfoBucketTable, "Count",
		[]string{"CallName", "BucketKind", "BucketID"}, []any{callName, kind, int64(bucketID)},
		&id, &count)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, s.insert(tx, callInfoBucketTable, callName, kind, int64(bucketID), int64(1))
	}
	return count, s.updateByID(tx, callInfoBucketTable, id, []string{"Count"}, count+1)
}

// GetCallInfoBuckets returns the per-domain and per-project counters of callName.
func (s *Store) GetCallInfoBuckets(callName string) (domains, projects map[int]int64, err error) {
	domains = make(map[int]int64)
	projects = make(map[int]int64)
	if s.backend == schema.NoneBackend || s.db == nil {
		return domains, projects, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureTable(callInfoBucketTable); err != nil {
		return nil, nil, err
	}

	query := rebind("SELECT BucketKind, BucketID, Count FROM "+quoteTableName(callInfoBucketTable, s.backend)+
		" WHERE CallName = ? ORDER BY ID", s.backend)
	rows, err := s.db.Query(query, callName)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var kind string
		var bucketID, count int64
		if err := rows.Scan(&kind, &bucketID, &count); err != nil {
			return nil, nil, err
		}
		switch kind {
		case domainBucket:
			domains[int(bucketID)] += count
		case projectBucket:
			projects[int(bucketID)] += count
		}
	}
	return domains, projects, rows.Err()
}

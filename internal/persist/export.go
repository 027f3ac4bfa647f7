package persist

import (
	"database/sql"
	"fmt"

	"github.com/huangsam/ehminer/schema"
)

// scanAll runs a select over every row of table, ordered by ID, calling scan per row.
func (s *Store) scanAll(table string, scan func(rows *sql.Rows) error) error {
	if s.backend == schema.NoneBackend || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureTable(table); err != nil {
		return err
	}

	def := tableDefs[table]
	query := fmt.Sprintf("SELECT ID, %s FROM %s ORDER BY ID", def.columnNames(), quoteTableName(table, s.backend))
	rows, err := s.db.Query(query)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating %s: %w", table, err)
	}
	return nil
}

// GetAllCallStatistics retrieves every call_statistic row.
func (s *Store) GetAllCallStatistics() ([]schema.CallStatisticRecord, error) {
	var results []schema.CallStatisticRecord
	err := s.scanAll(callStatisticTable, func(rows *sql.Rows) error {
		var r schema.CallStatisticRecord
		if err := rows.Scan(&r.ID, &r.CallName, &r.CallDefLoc, &r.DomainName, &r.ProjectName, &r.CallNumber); err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	return results, err
}

// GetAllCallInfo retrieves every call_info row.
func (s *Store) GetAllCallInfo() ([]schema.CallInfoRecord, error) {
	var results []schema.CallInfoRecord
	err := s.scanAll(callInfoTable, func(rows *sql.Rows) error {
		var r schema.CallInfoRecord
		var hasOutDef, isMulDef int64
		if err := rows.Scan(&r.ID, &r.CallName, &r.DefLoc, &hasOutDef, &isMulDef,
			&r.NumDomain, &r.NumProject, &r.NumCallTotal); err != nil {
			return err
		}
		r.HasOutDef = hasOutDef != 0
		r.IsMulDef = isMulDef != 0
		results = append(results, r)
		return nil
	})
	return results, err
}

// GetAllCallGraphEdges retrieves every call_graph row.
func (s *Store) GetAllCallGraphEdges() ([]schema.CallGraphRecord, error) {
	var results []schema.CallGraphRecord
	err := s.scanAll(callGraphTable, func(rows *sql.Rows) error {
		var r schema.CallGraphRecord
		if err := rows.Scan(&r.ID, &r.FuncName, &r.FuncDefLoc, &r.FuncSize, &r.DomainName,
			&r.ProjectName, &r.CallName, &r.CallDefLoc); err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	return results, err
}

// GetAllPrebranch retrieves every prebranch_call row.
func (s *Store) GetAllPrebranch() ([]schema.PrebranchRecord, error) {
	var results []schema.PrebranchRecord
	err := s.scanAll(prebranchTable, func(rows *sql.Rows) error {
		var r schema.PrebranchRecord
		if err := rows.Scan(&r.ID, &r.CallName, &r.CallDefLoc, &r.DomainName, &r.ProjectName,
			&r.LogName, &r.LogDefLoc, &r.NumLogTime); err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	return results, err
}

// GetAllPostbranch retrieves every postbranch_call row.
func (s *Store) GetAllPostbranch() ([]schema.PostbranchRecord, error) {
	var results []schema.PostbranchRecord
	err := s.scanAll(postbranchTable, func(rows *sql.Rows) error {
		var r schema.PostbranchRecord
		if err := rows.Scan(&r.ID, &r.LogName, &r.LogDefLoc, &r.DomainName, &r.ProjectName,
			&r.PrebranchCall, &r.NumPrebranchCall, &r.NumPostbranchCall); err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	return results, err
}

// GetAllBranchCalls retrieves every branch_call row with repeated fields still encoded.
func (s *Store) GetAllBranchCalls() ([]schema.BranchCallRecord, error) {
	var results []schema.BranchCallRecord
	err := s.scanAll(branchCallTable, func(rows *sql.Rows) error {
		var r schema.BranchCallRecord
		if err := rows.Scan(&r.ID, &r.DomainName, &r.ProjectName, &r.CallName, &r.CallDefLoc,
			&r.CallID, &r.CallStr, &r.CallReturn, &r.CallArgVec,
			&r.CallArgNum, &r.ExprNodeVec, &r.ExprNodeNum, &r.ExprStrVec,
			&r.PathNumberVec, &r.CaseLabelVec, &r.BranchLevel, &r.LogName,
			&r.LogDefLoc, &r.LogID, &r.LogStr, &r.LogArgVec,
			&r.LogArgNum, &r.LogRetType, &r.LogArgTypeVec, &r.LogArgTypeNum); err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	return results, err
}

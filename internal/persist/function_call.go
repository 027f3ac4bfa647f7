package persist

import (
	"database/sql"

	"github.com/huangsam/ehminer/schema"
)

// RecordFunctionCall appends one raw call site to function_call and bumps its
// call_statistic counter, keyed by (CallName, CallDefLoc, DomainName, ProjectName).
func (s *Store) RecordFunctionCall(id schema.Identity, call schema.FunctionCall) error {
	return s.write("function_call", []string{functionCallTable, callStatisticTable}, func(tx *sql.Tx) error {
		if err := s.insert(tx, functionCallTable,
			call.CallName, call.CallDefLoc, id.Domain, id.Project, call.CallLoc, call.CallStr); err != nil {
			return err
		}

		var rowID, callNumber int64
		found, err := s.lookup(tx, callStatisticTable, "CallNumber",
			[]string{"CallName", "CallDefLoc", "DomainName", "ProjectName"},
			[]any{call.CallName, call.CallDefLoc, id.Domain, id.Project},
			&rowID, &callNumber)
		if err != nil {
			return err
		}
		if !found {
			return s.insert(tx, callStatisticTable, call.CallName, call.CallDefLoc, id.Domain, id.Project, int64(1))
		}
		return s.updateByID(tx, callStatisticTable, rowID, []string{"CallNumber"}, callNumber+1)
	})
}

// RecordCallGraphEdge appends one caller -> callee edge. Repeated edges are kept, one per
// call site.
func (s *Store) RecordCallGraphEdge(id schema.Identity, edge schema.CallGraphEdge) error {
	return s.write("call_graph", []string{callGraphTable}, func(tx *sql.Tx) error {
		return s.insert(tx, callGraphTable,
			edge.FuncName, edge.FuncDefLoc, int64(edge.FuncSize), id.Domain, id.Project,
			edge.CallName, edge.CallDefLoc)
	})
}

// RecordBranchCall appends one branch-guarded call. Every call site is its own row, so
// there is no lookup. Repeated fields are stored encoded with EncodeList.
func (s *Store) RecordBranchCall(id schema.Identity, call schema.BranchCall) error {
	return s.write("branch_call", []string{branchCallTable}, func(tx *sql.Tx) error {
		return s.insert(tx, branchCallTable,
			id.Domain, id.Project, call.CallName, call.CallDefLoc,
			call.CallID, call.CallStr, EncodeList(call.CallReturn), EncodeList(call.CallArgs),
			int64(len(call.CallArgs)), EncodeList(call.ExprNodes), int64(len(call.ExprNodes)), EncodeList(call.ExprStrs),
			EncodeInts(call.PathNumbers), EncodeList(call.CaseLabels), int64(call.BranchLevel()), call.LogName,
			call.LogDefLoc, call.LogID, call.LogStr, EncodeList(call.LogArgs),
			int64(len(call.LogArgs)), call.LogRetType, EncodeList(call.LogArgTypes), int64(len(call.LogArgTypes)),
		)
	})
}

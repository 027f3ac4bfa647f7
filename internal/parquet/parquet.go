// Package parquet provides data structures and functions for exporting persisted
// call observations to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"

	"github.com/huangsam/ehminer/schema"
	"github.com/parquet-go/parquet-go"
)

// CallStatistic maps to the call_statistic table.
type CallStatistic struct {
	ID          int64  `parquet:"id,snappy"`
	CallName    string `parquet:"call_name,snappy"`
	CallDefLoc  string `parquet:"call_def_loc,snappy"`
	DomainName  string `parquet:"domain_name,snappy"`
	ProjectName string `parquet:"project_name,snappy"`
	CallNumber  int64  `parquet:"call_number,snappy"`
}

// CallInfo maps to the call_info table.
type CallInfo struct {
	ID       int64  `parquet:"id,snappy"`
	CallName string `parquet:"call_name,snappy"`

	// DefLoc holds every distinct definition location joined with "#"
	DefLoc string `parquet:"def_loc,snappy"`

	HasOutDef    bool  `parquet:"has_out_def,snappy"`
	IsMulDef     bool  `parquet:"is_mul_def,snappy"`
	NumDomain    int64 `parquet:"num_domain,snappy"`
	NumProject   int64 `parquet:"num_project,snappy"`
	NumCallTotal int64 `parquet:"num_call_total,snappy"`
}

// CallGraphEdge maps to the call_graph table.
type CallGraphEdge struct {
	ID          int64  `parquet:"id,snappy"`
	FuncName    string `parquet:"func_name,snappy"`
	FuncDefLoc  string `parquet:"func_def_loc,snappy"`
	FuncSize    int64  `parquet:"func_size,snappy"`
	DomainName  string `parquet:"domain_name,snappy"`
	ProjectName string `parquet:"project_name,snappy"`
	CallName    string `parquet:"call_name,snappy"`
	CallDefLoc  string `parquet:"call_def_loc,snappy"`
}

// Prebranch maps to the prebranch_call table.
type Prebranch struct {
	ID          int64  `parquet:"id,snappy"`
	CallName    string `parquet:"call_name,snappy"`
	CallDefLoc  string `parquet:"call_def_loc,snappy"`
	DomainName  string `parquet:"domain_name,snappy"`
	ProjectName string `parquet:"project_name,snappy"`
	LogName     string `parquet:"log_name,snappy"`
	LogDefLoc   string `parquet:"log_def_loc,snappy"`
	NumLogTime  int64  `parquet:"num_log_time,snappy"`
}

// Postbranch maps to the postbranch_call table.
type Postbranch struct {
	ID          int64  `parquet:"id,snappy"`
	LogName     string `parquet:"log_name,snappy"`
	LogDefLoc   string `parquet:"log_def_loc,snappy"`
	DomainName  string `parquet:"domain_name,snappy"`
	ProjectName string `parquet:"project_name,snappy"`

	// PrebranchCall is the "#a#b#" set of distinct preceding calls
	PrebranchCall string `parquet:"prebranch_call,snappy"`

	NumPrebranchCall  int64 `parquet:"num_prebranch_call,snappy"`
	NumPostbranchCall int64 `parquet:"num_postbranch_call,snappy"`
}

// BranchCall maps to the branch_call table. List columns keep their stored encoding.
type BranchCall struct {
	ID            int64  `parquet:"id,snappy"`
	DomainName    string `parquet:"domain_name,snappy"`
	ProjectName   string `parquet:"project_name,snappy"`
	CallName      string `parquet:"call_name,snappy"`
	CallDefLoc    string `parquet:"call_def_loc,snappy"`
	CallID        string `parquet:"call_id,snappy"`
	CallStr       string `parquet:"call_str,snappy"`
	CallReturn    string `parquet:"call_return,snappy"`
	CallArgVec    string `parquet:"call_arg_vec,snappy"`
	CallArgNum    int64  `parquet:"call_arg_num,snappy"`
	ExprNodeVec   string `parquet:"expr_node_vec,snappy"`
	ExprNodeNum   int64  `parquet:"expr_node_num,snappy"`
	ExprStrVec    string `parquet:"expr_str_vec,snappy"`
	PathNumberVec string `parquet:"path_number_vec,snappy"`
	CaseLabelVec  string `parquet:"case_label_vec,snappy"`
	BranchLevel   int64  `parquet:"branch_level,snappy"`
	LogName       string `parquet:"log_name,snappy"`
	LogDefLoc     string `parquet:"log_def_loc,snappy"`
	LogID         string `parquet:"log_id,snappy"`
	LogStr        string `parquet:"log_str,snappy"`
	LogArgVec     string `parquet:"log_arg_vec,snappy"`
	LogArgNum     int64  `parquet:"log_arg_num,snappy"`
	LogRetType    string `parquet:"log_ret_type,snappy"`
	LogArgTypeVec string `parquet:"log_arg_type_vec,snappy"`
	LogArgTypeNum int64  `parquet:"log_arg_type_num,snappy"`
}

// WriteParquet writes a slice of rows to a Parquet file whose schema is inferred from T.
func WriteParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	// Close flushes the footer, so its error matters
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertCallStatisticRecords converts store rows for Parquet export.
func ConvertCallStatisticRecords(records []schema.CallStatisticRecord) []CallStatistic {
	result := make([]CallStatistic, len(records))
	for i, r := range records {
		result[i] = CallStatistic{
			ID:          r.ID,
			CallName:    r.CallName,
			CallDefLoc:  r.CallDefLoc,
			DomainName:  r.DomainName,
			ProjectName: r.ProjectName,
			CallNumber:  r.CallNumber,
		}
	}
	return result
}

// ConvertCallInfoRecords converts store rows for Parquet export.
func ConvertCallInfoRecords(records []schema.CallInfoRecord) []CallInfo {
	result := make([]CallInfo, len(records))
	for i, r := range records {
		result[i] = CallInfo{
			ID:           r.ID,
			CallName:     r.CallName,
			DefLoc:       r.DefLoc,
			HasOutDef:    r.HasOutDef,
			IsMulDef:     r.IsMulDef,
			NumDomain:    r.NumDomain,
			NumProject:   r.NumProject,
			NumCallTotal: r.NumCallTotal,
		}
	}
	return result
}

// ConvertCallGraphRecords converts store rows for Parquet export.
func ConvertCallGraphRecords(records []schema.CallGraphRecord) []CallGraphEdge {
	result := make([]CallGraphEdge, len(records))
	for i, r := range records {
		result[i] = CallGraphEdge{
			ID:          r.ID,
			FuncName:    r.FuncName,
			FuncDefLoc:  r.FuncDefLoc,
			FuncSize:    r.FuncSize,
			DomainName:  r.DomainName,
			ProjectName: r.ProjectName,
			CallName:    r.CallName,
			CallDefLoc:  r.CallDefLoc,
		}
	}
	return result
}

// ConvertPrebranchRecords converts store rows for Parquet export.
func ConvertPrebranchRecords(records []schema.PrebranchRecord) []Prebranch {
	result := make([]Prebranch, len(records))
	for i, r := range records {
		result[i] = Prebranch{
			ID:          r.ID,
			CallName:    r.CallName,
			CallDefLoc:  r.CallDefLoc,
			DomainName:  r.DomainName,
			ProjectName: r.ProjectName,
			LogName:     r.LogName,
			LogDefLoc:   r.LogDefLoc,
			NumLogTime:  r.NumLogTime,
		}
	}
	return result
}

// ConvertPostbranchRecords converts store rows for Parquet export.
func ConvertPostbranchRecords(records []schema.PostbranchRecord) []Postbranch {
	result := make([]Postbranch, len(records))
	for i, r := range records {
		result[i] = Postbranch{
			ID:                r.ID,
			LogName:           r.LogName,
			LogDefLoc:         r.LogDefLoc,
			DomainName:        r.DomainName,
			ProjectName:       r.ProjectName,
			PrebranchCall:     r.PrebranchCall,
			NumPrebranchCall:  r.NumPrebranchCall,
			NumPostbranchCall: r.NumPostbranchCall,
		}
	}
	return result
}

// ConvertBranchCallRecords converts store rows for Parquet export.
func ConvertBranchCallRecords(records []schema.BranchCallRecord) []BranchCall {
	result := make([]BranchCall, len(records))
	for i, r := range records {
		result[i] = BranchCall{
			ID:            r.ID,
			DomainName:    r.DomainName,
			ProjectName:   r.ProjectName,
			CallName:      r.CallName,
			CallDefLoc:    r.CallDefLoc,
			CallID:        r.CallID,
			CallStr:       r.CallStr,
			CallReturn:    r.CallReturn,
			CallArgVec:    r.CallArgVec,
			CallArgNum:    r.CallArgNum,
			ExprNodeVec:   r.ExprNodeVec,
			ExprNodeNum:   r.ExprNodeNum,
			ExprStrVec:    r.ExprStrVec,
			PathNumberVec: r.PathNumberVec,
			CaseLabelVec:  r.CaseLabelVec,
			BranchLevel:   r.BranchLevel,
			LogName:       r.LogName,
			LogDefLoc:     r.LogDefLoc,
			LogID:         r.LogID,
			LogStr:        r.LogStr,
			LogArgVec:     r.LogArgVec,
			LogArgNum:     r.LogArgNum,
			LogRetType:    r.LogRetType,
			LogArgTypeVec: r.LogArgTypeVec,
			LogArgTypeNum: r.LogArgTypeNum,
		}
	}
	return result
}

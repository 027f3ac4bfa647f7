package persist

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/internal/parquet"
)

// exportTable is one table's rows, already converted, and the writer for them.
type exportTable struct {
	name  string
	rows  int
	write func(path string) error
}

// ExecuteExport writes every observation table of src to "<outputFile>.<table>.parquet".
func ExecuteExport(src contract.ExportSource, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	stats, err := src.GetAllCallStatistics()
	if err != nil {
		return fmt.Errorf("failed to retrieve call statistics: %w", err)
	}
	info, err := src.GetAllCallInfo()
	if err != nil {
		return fmt.Errorf("failed to retrieve call info: %w", err)
	}
	edges, err := src.GetAllCallGraphEdges()
	if err != nil {
		return fmt.Errorf("failed to retrieve call graph: %w", err)
	}
	pre, err := src.GetAllPrebranch()
	if err != nil {
		return fmt.Errorf("failed to retrieve prebranch calls: %w", err)
	}
	post, err := src.GetAllPostbranch()
	if err != nil {
		return fmt.Errorf("failed to retrieve postbranch calls: %w", err)
	}
	branch, err := src.GetAllBranchCalls()
	if err != nil {
		return fmt.Errorf("failed to retrieve branch calls: %w", err)
	}

	pqStats := parquet.ConvertCallStatisticRecords(stats)
	pqInfo := parquet.ConvertCallInfoRecords(info)
	pqEdges := parquet.ConvertCallGraphRecords(edges)
	pqPre := parquet.ConvertPrebranchRecords(pre)
	pqPost := parquet.ConvertPostbranchRecords(post)
	pqBranch := parquet.ConvertBranchCallRecords(branch)

	tables := []exportTable{
		{callStatisticTable, len(pqStats), func(p string) error { return parquet.WriteParquet(pqStats, p) }},
		{callInfoTable, len(pqInfo), func(p string) error { return parquet.WriteParquet(pqInfo, p) }},
		{callGraphTable, len(pqEdges), func(p string) error { return parquet.WriteParquet(pqEdges, p) }},
		{prebranchTable, len(pqPre), func(p string) error { return parquet.WriteParquet(pqPre, p) }},
		{postbranchTable, len(pqPost), func(p string) error { return parquet.WriteParquet(pqPost, p) }},
		{branchCallTable, len(pqBranch), func(p string) error { return parquet.WriteParquet(pqBranch, p) }},
	}

	total := 0
	for _, t := range tables {
		total += t.rows
	}
	if total == 0 {
		return errors.New("no observation data found to export")
	}

	for _, t := range tables {
		path := outputFile + "." + t.name + ".parquet"
		if err := t.write(path); err != nil {
			return fmt.Errorf("failed to write %s: %w", t.name, err)
		}
		_, _ = fmt.Fprintf(w, "Exported %d %s rows to: %s\n", t.rows, t.name, path)
	}

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	return nil
}

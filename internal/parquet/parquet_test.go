package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/ehminer/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallInfoStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(CallInfo))
	require.NotNil(t, s)

	expectedColumns := []string{
		"id", "call_name", "def_loc", "has_out_def", "is_mul_def",
		"num_domain", "num_project", "num_call_total",
	}
	for _, colName := range expectedColumns {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestBranchCallStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(BranchCall))
	require.NotNil(t, s)

	for _, colName := range []string{"path_number_vec", "branch_level", "log_arg_type_num"} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteParquet_CallInfo(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "call_info.parquet")

	data := ConvertCallInfoRecords([]schema.CallInfoRecord{
		{ID: 1, CallName: "malloc", DefLoc: "/src/mm.c:10", HasOutDef: true, NumDomain: 1, NumProject: 2, NumCallTotal: 5},
		{ID: 2, CallName: "free", DefLoc: "/a.c:1#/b.c:2", IsMulDef: true, NumDomain: 2, NumProject: 2, NumCallTotal: 2},
	})
	require.NoError(t, WriteParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[CallInfo](file)
	defer func() { _ = reader.Close() }()

	readData := make([]CallInfo, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, len(data), n)
	assert.Equal(t, data, readData)
}

func TestWriteParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")

	require.NoError(t, WriteParquet([]Postbranch{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteParquet([]Prebranch{{ID: 1}}, "/nonexistent/directory/output.parquet")
	require.Error(t, err)
}

func TestConvertRecords(t *testing.T) {
	stats := ConvertCallStatisticRecords([]schema.CallStatisticRecord{
		{ID: 3, CallName: "open", CallDefLoc: "/x.c:1", DomainName: "net", ProjectName: "nginx", CallNumber: 7},
	})
	require.Len(t, stats, 1)
	assert.Equal(t, int64(7), stats[0].CallNumber)
	assert.Equal(t, "nginx", stats[0].ProjectName)

	post := ConvertPostbranchRecords([]schema.PostbranchRecord{
		{ID: 1, LogName: "log_error", PrebranchCall: "#open#", NumPrebranchCall: 1, NumPostbranchCall: 2},
	})
	require.Len(t, post, 1)
	assert.Equal(t, "#open#", post[0].PrebranchCall)
	assert.Equal(t, int64(2), post[0].NumPostbranchCall)

	branch := ConvertBranchCallRecords([]schema.BranchCallRecord{
		{ID: 1, CallName: "read", PathNumberVec: "0#-_-#1", BranchLevel: 2},
	})
	require.Len(t, branch, 1)
	assert.Equal(t, "0#-_-#1", branch[0].PathNumberVec)
	assert.Equal(t, int64(2), branch[0].BranchLevel)

	edges := ConvertCallGraphRecords([]schema.CallGraphRecord{{ID: 9, FuncName: "main", FuncSize: 40}})
	assert.Equal(t, int64(40), edges[0].FuncSize)

	pre := ConvertPrebranchRecords([]schema.PrebranchRecord{{ID: 2, LogName: "perror", NumLogTime: 3}})
	assert.Equal(t, int64(3), pre[0].NumLogTime)

	assert.Empty(t, ConvertCallInfoRecords(nil))
}

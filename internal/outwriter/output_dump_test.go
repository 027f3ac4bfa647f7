package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/ehminer/internal/catalog"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T) *schema.DumpRenderModel {
	t.Helper()
	cat, err := catalog.FromEntries([]schema.CatalogEntry{
		{Domain: "kernel", Projects: []string{"linux", "freebsd"}},
		{Domain: "web", Projects: []string{"nginx"}},
	}, schema.StrictMatch, 0)
	require.NoError(t, err)

	records := []*schema.CallRecord{
		{
			ID: 1, CallName: "open", DefLocation: "/usr/include/fcntl.h:20", OutProjectDef: true,
			NumDomain: 2, NumProject: 2, NumCallTotal: 3,
			DomainCounts:  map[int]int{0: 2, 1: 1},
			ProjectCounts: map[int]int{0: 2, 2: 1},
		},
		{
			ID: 2, CallName: "ngx_alloc", DefLocation: "/src/web/nginx/a.h:1#/src/web/nginx/b.h:2", MultiDef: true,
			NumDomain: 1, NumProject: 1, NumCallTotal: 1,
			DomainCounts:  map[int]int{1: 1},
			ProjectCounts: map[int]int{2: 1},
		},
	}
	return BuildDumpRenderModel(records, cat)
}

func TestBuildDumpRenderModel(t *testing.T) {
	model := testModel(t)

	assert.Equal(t, []string{"kernel", "web"}, model.Domains)
	assert.Equal(t, []string{"kernel:linux", "kernel:freebsd", "web:nginx"}, model.Projects)
	require.Len(t, model.Calls, 2)
	assert.Equal(t, []int{2, 1}, model.Calls[0].DomainCounts)
	assert.Equal(t, []int{2, 0, 1}, model.Calls[0].ProjectCounts)
	assert.Equal(t, []int{0, 1}, model.Calls[1].DomainCounts)
}

func TestDumpColumns(t *testing.T) {
	model := testModel(t)
	header := strings.Join(model.Columns(), ", ")
	assert.Equal(t,
		"Call ID, Call Name, Def Location, Has Out Def, Is Multi Def, Num Domain, Num Project, Num Call Total"+
			", domain:kernel, domain:web, kernel:linux, kernel:freebsd, web:nginx",
		header)
}

func TestWriteDumpCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDumpCSV(&buf, testModel(t)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 calls

	assert.Equal(t, "Call ID", rows[0][0])
	assert.Equal(t, []string{"1", "open", "/usr/include/fcntl.h:20", "1", "0", "2", "2", "3", "2", "1", "2", "0", "1"}, rows[1])
	assert.Equal(t, "/src/web/nginx/a.h:1#/src/web/nginx/b.h:2", rows[2][2])
	assert.Equal(t, "1", rows[2][4])
}

func TestWriteDumpTable(t *testing.T) {
	cfg := &contract.Config{Width: 200}
	var buf bytes.Buffer
	require.NoError(t, writeDumpTable(&buf, testModel(t), cfg))

	out := buf.String()
	assert.Contains(t, out, "ngx_alloc")
	assert.Contains(t, out, "/usr/include/fcntl.h:20")
	assert.Contains(t, out, "Tracked 2 calls across 2 domains and 3 projects")
	assert.NotContains(t, out, "\x1b[")
}

func TestWriteDumpTable_Colors(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = noColor })

	cfg := &contract.Config{Width: 200, UseColors: true}
	var buf bytes.Buffer
	require.NoError(t, writeDumpTable(&buf, testModel(t), cfg))

	out := buf.String()
	assert.Contains(t, out, contract.HeaderColor.Sprint("open"))
	assert.Contains(t, out, contract.HeaderColor.Sprint("ngx_alloc"))
	assert.Contains(t, out, contract.FlagColor.Sprint("1"))

	// The model itself keeps plain names
	model := testModel(t)
	require.NoError(t, writeDumpTable(&bytes.Buffer{}, model, cfg))
	assert.Equal(t, "open", model.Calls[0].CallName)
}

func TestPrintDump_JSONToFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "dump.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: outFile}
	require.NoError(t, PrintDump(testModel(t), cfg))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var decoded schema.DumpRenderModel
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, testModel(t), &decoded)
}

func TestGetMaxTableLocationWidth(t *testing.T) {
	assert.Equal(t, 70, GetMaxTableLocationWidth(&contract.Config{Width: 300}, 0))
	assert.Equal(t, 15, GetMaxTableLocationWidth(&contract.Config{Width: 80}, 10))
	assert.Equal(t, 40, GetMaxTableLocationWidth(&contract.Config{Width: 116}, 2))
}

func TestPrintIngestSummary(t *testing.T) {
	stats := schema.IngestStats{Lines: 10, Accepted: 6, Unclassified: 2, Malformed: 1, SkippedUnits: 1, Skipped: 1}
	cfg := &contract.Config{Workers: 4, StoreBackend: schema.SQLiteBackend}

	var buf bytes.Buffer
	require.NoError(t, PrintIngestSummary(&buf, stats, cfg, time.Second))
	out := buf.String()
	assert.Contains(t, out, "Read 10 lines: 6 accepted, 2 dropped, 1 malformed")
	assert.Contains(t, out, "2 unclassified")
	assert.Contains(t, out, "1 repeated units")
	assert.Contains(t, out, "Store backend: sqlite")

	buf.Reset()
	cfg.Output = schema.JSONOut
	require.NoError(t, NewOutWriter().WriteIngestSummary(&buf, stats, cfg, time.Second))
	var decoded schema.IngestStats
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, stats, decoded)
}

package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/ehminer/internal/catalog"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/internal/persist"
	"github.com/huangsam/ehminer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	kernelLinux  = schema.Identity{Domain: "kernel", Project: "linux", DomainID: 0, ProjectID: 0}
	kernelBSD    = schema.Identity{Domain: "kernel", Project: "freebsd", DomainID: 0, ProjectID: 1}
	webNginx     = schema.Identity{Domain: "web", Project: "nginx", DomainID: 1, ProjectID: 2}
	linuxOpen    = "/src/kernel/linux/fs/open.c:10"
	bsdOpen      = "/src/kernel/freebsd/sys/open.c:4"
	nginxCore    = "/src/web/nginx/core/ngx.c:99"
	systemHeader = "/usr/include/fcntl.h:20"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.FromEntries([]schema.CatalogEntry{
		{Domain: "kernel", Projects: []string{"linux", "freebsd"}},
		{Domain: "web", Projects: []string{"nginx"}},
	}, schema.StrictMatch, 0)
	require.NoError(t, err)
	return cat
}

func newTestConfig(t *testing.T, record string) *contract.Config {
	t.Helper()
	records, err := contract.ParseRecordKinds(record)
	require.NoError(t, err)
	return &contract.Config{Records: records, MatchMode: schema.StrictMatch}
}

func newSQLiteStore(t *testing.T) *persist.Store {
	t.Helper()
	store, err := persist.NewStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "engine.db"), time.Second, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestObserveCall(t *testing.T) {
	store := &persist.MockObservationStore{}
	store.On("RecordCallInfo", mock.Anything).Return(nil)
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), store, nil)

	require.NoError(t, e.ObserveCall("open", linuxOpen, systemHeader))
	require.NoError(t, e.ObserveCall("open", bsdOpen, systemHeader))
	require.NoError(t, e.ObserveCall("open", nginxCore, systemHeader))

	rec, ok := e.Aggregator().Get("open")
	require.True(t, ok)
	assert.Equal(t, 3, rec.NumCallTotal)
	assert.Equal(t, 2, rec.NumDomain)
	assert.Equal(t, 3, rec.NumProject)
	assert.True(t, rec.OutProjectDef)

	store.AssertNumberOfCalls(t, "RecordCallInfo", 3)
	store.AssertCalled(t, "RecordCallInfo", schema.CallObservation{
		Identity: webNginx, CallName: "open", DefLocation: systemHeader, OutOfProject: true,
	})
	assert.Equal(t, 3, e.Stats().Accepted)
}

func TestObserveCall_Unclassified(t *testing.T) {
	store := &persist.MockObservationStore{}
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), store, nil)

	err := e.ObserveCall("printf", "/usr/lib/libc.c:1", systemHeader)
	require.ErrorIs(t, err, contract.ErrClassification)

	assert.Equal(t, 0, e.Aggregator().Len())
	assert.Equal(t, 1, e.Stats().Unclassified)
	store.AssertNotCalled(t, "RecordCallInfo", mock.Anything)
}

func TestObserveCall_LogsDrop(t *testing.T) {
	var buf bytes.Buffer
	logger := contract.NewLogger(&buf, "json", slog.LevelInfo)
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), &persist.MockObservationStore{}, logger)

	require.Error(t, e.ObserveCall("printf", "/usr/lib/libc.c:1", systemHeader))

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "observe.drop", event["msg"])
	assert.Equal(t, "WARN", event["level"])
	assert.Equal(t, "classification", event["class"])
	assert.Equal(t, "printf", event["name"])
}

func TestObserveCall_FallsBackToDefinition(t *testing.T) {
	store := &persist.MockObservationStore{}
	store.On("RecordCallInfo", mock.Anything).Return(nil)
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), store, nil)

	// Macro expansions arrive without a usable call site
	require.NoError(t, e.ObserveCall("ngx_log", "<scratch space>", nginxCore))
	store.AssertCalled(t, "RecordCallInfo", schema.CallObservation{
		Identity: webNginx, CallName: "ngx_log", DefLocation: nginxCore,
	})
}

func TestObserveCall_CapacityExceeded(t *testing.T) {
	cat, err := catalog.FromEntries([]schema.CatalogEntry{
		{Domain: "kernel", Projects: []string{"linux", "freebsd"}},
		{Domain: "web", Projects: []string{"nginx"}},
	}, schema.StrictMatch, 2)
	require.NoError(t, err)
	store := &persist.MockObservationStore{}
	e := NewEngine(newTestConfig(t, ""), cat, store, nil)

	err = e.ObserveCall("open", nginxCore, systemHeader)
	require.ErrorIs(t, err, contract.ErrCapacityExceeded)
	assert.Equal(t, 1, e.Stats().CapacityExceeded)
	assert.Equal(t, 1, e.Stats().Dropped())
}

func TestObserveCall_PersistenceFailureKeepsAggregate(t *testing.T) {
	store := &persist.MockObservationStore{}
	store.On("RecordCallInfo", mock.Anything).Return(errors.Join(contract.ErrPersistence, errors.New("database is locked")))
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), store, nil)

	err := e.ObserveCall("open", linuxOpen, systemHeader)
	require.ErrorIs(t, err, contract.ErrPersistence)
	assert.Equal(t, 1, e.Stats().PersistenceFailed)
	assert.Equal(t, 1, e.Aggregator().Len())
}

func TestRecorders_Disabled(t *testing.T) {
	store := &persist.MockObservationStore{}
	e := NewEngine(newTestConfig(t, "calls"), newTestCatalog(t), store, nil)

	require.NoError(t, e.RecordFunctionCall(schema.FunctionCall{CallName: "open", CallLoc: linuxOpen}))
	require.NoError(t, e.RecordBranchCall(schema.BranchCall{CallName: "open", CallID: linuxOpen}))
	require.NoError(t, e.RecordPrebranch(schema.CoOccurrence{CallName: "open", CallLoc: linuxOpen}))
	require.NoError(t, e.RecordPostbranch(schema.CoOccurrence{CallName: "open", CallLoc: linuxOpen}))
	require.NoError(t, e.RecordEdge(schema.CallGraphEdge{FuncName: "main", CallLoc: linuxOpen}))

	assert.Equal(t, 5, e.Stats().Disabled)
	store.AssertExpectations(t)
}

func TestRecorders_Classification(t *testing.T) {
	store := &persist.MockObservationStore{}
	store.On("RecordFunctionCall", kernelLinux, mock.Anything).Return(nil)
	store.On("RecordBranchCall", kernelBSD, mock.Anything).Return(nil)
	store.On("RecordPrebranch", webNginx, mock.Anything).Return(nil)
	store.On("RecordPostbranch", webNginx, mock.Anything).Return(nil)
	store.On("RecordCallGraphEdge", kernelLinux, mock.Anything).Return(nil)
	e := NewEngine(newTestConfig(t, "all"), newTestCatalog(t), store, nil)

	require.NoError(t, e.RecordFunctionCall(schema.FunctionCall{CallName: "open", CallLoc: linuxOpen, CallDefLoc: systemHeader}))
	require.NoError(t, e.RecordBranchCall(schema.BranchCall{CallName: "open", CallID: bsdOpen, CallDefLoc: systemHeader}))
	require.NoError(t, e.RecordPrebranch(schema.CoOccurrence{CallName: "open", CallLoc: nginxCore, LogName: "ngx_log_error"}))
	require.NoError(t, e.RecordPostbranch(schema.CoOccurrence{CallName: "open", CallLoc: nginxCore, LogName: "ngx_log_error"}))
	require.NoError(t, e.RecordEdge(schema.CallGraphEdge{FuncName: "do_sys_open", FuncDefLoc: linuxOpen, CallLoc: linuxOpen, CallName: "getname"}))

	assert.Equal(t, 5, e.Stats().Accepted)
	store.AssertExpectations(t)
}

func TestRecorders_NoDefinitionFallback(t *testing.T) {
	// A call site outside the catalog is dropped even when the definition is inside it
	const macroSite = "/tmp/macro.c:1"
	store := &persist.MockObservationStore{}
	e := NewEngine(newTestConfig(t, "all"), newTestCatalog(t), store, nil)

	errs := []error{
		e.RecordFunctionCall(schema.FunctionCall{CallName: "open", CallLoc: macroSite, CallDefLoc: linuxOpen}),
		e.RecordBranchCall(schema.BranchCall{CallName: "open", CallID: macroSite, CallDefLoc: linuxOpen}),
		e.RecordPrebranch(schema.CoOccurrence{CallName: "open", CallLoc: macroSite, CallDefLoc: linuxOpen, LogName: "printk"}),
		e.RecordPostbranch(schema.CoOccurrence{CallName: "open", CallLoc: macroSite, CallDefLoc: linuxOpen, LogName: "printk"}),
		e.RecordEdge(schema.CallGraphEdge{FuncName: "do_sys_open", FuncDefLoc: linuxOpen, CallLoc: macroSite, CallName: "open", CallDefLoc: linuxOpen}),
	}
	for _, err := range errs {
		assert.ErrorIs(t, err, contract.ErrClassification)
	}

	stats := e.Stats()
	assert.Equal(t, 0, stats.Accepted)
	assert.Equal(t, 5, stats.Unclassified)
	assert.Empty(t, store.Calls)
}

func TestBeginUnit(t *testing.T) {
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), &persist.MockObservationStore{}, nil)

	assert.True(t, e.BeginUnit("/src/kernel/linux/fs/open.c", []string{"-O2"}))
	assert.False(t, e.BeginUnit("/src/kernel/linux/fs/open.c", []string{"-O2"}))
	// Different flags still name the same unit
	assert.False(t, e.BeginUnit("/src/kernel/linux/fs/open.c", []string{"-O0"}))
	assert.True(t, e.BeginUnit("/src/kernel/linux/fs/read.c", []string{"-O0"}))
	assert.Equal(t, 2, e.Stats().SkippedUnits)
}

func TestApply_SkipsRepeatedUnit(t *testing.T) {
	store := &persist.MockObservationStore{}
	store.On("RecordCallInfo", mock.Anything).Return(nil)
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), store, nil)

	call := schema.Observation{Kind: schema.CallObservationKind, CallName: "open", CallLoc: linuxOpen, CallDefLoc: systemHeader}
	unit := schema.Observation{Kind: schema.UnitObservation, Unit: "/src/kernel/linux/fs/open.c"}

	require.NoError(t, e.Apply(unit))
	require.NoError(t, e.Apply(call))
	require.NoError(t, e.Apply(unit))
	require.NoError(t, e.Apply(call))

	rec, ok := e.Aggregator().Get("open")
	require.True(t, ok)
	assert.Equal(t, 1, rec.NumCallTotal)
	assert.Equal(t, 1, e.Stats().Skipped)
	assert.Equal(t, 1, e.Stats().SkippedUnits)
}

func TestApply_Malformed(t *testing.T) {
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), &persist.MockObservationStore{}, nil)

	assert.ErrorIs(t, e.Apply(schema.Observation{Kind: "bogus"}), contract.ErrMalformedObservation)
	assert.ErrorIs(t, e.Apply(schema.Observation{Kind: schema.CallObservationKind}), contract.ErrMalformedObservation)
	assert.ErrorIs(t, e.Apply(schema.Observation{Kind: schema.BranchCallObservation}), contract.ErrMalformedObservation)
	assert.ErrorIs(t, e.Apply(schema.Observation{Kind: schema.UnitObservation}), contract.ErrMalformedObservation)
	assert.Equal(t, 4, e.Stats().Malformed)
}

func TestEngine_SQLiteEndToEnd(t *testing.T) {
	store := newSQLiteStore(t)
	e := NewEngine(newTestConfig(t, ""), newTestCatalog(t), store, nil)

	require.NoError(t, e.ObserveCall("open", linuxOpen, systemHeader))
	require.NoError(t, e.ObserveCall("open", nginxCore, "/src/web/nginx/os/open.h:1"))
	require.NoError(t, e.RecordPostbranch(schema.CoOccurrence{CallName: "open", CallLoc: linuxOpen, LogName: "printk"}))
	require.NoError(t, e.RecordPostbranch(schema.CoOccurrence{CallName: "open", CallLoc: linuxOpen, LogName: "printk"}))

	info, err := store.GetAllCallInfo()
	require.NoError(t, err)
	require.Len(t, info, 1)
	rec, _ := e.Aggregator().Get("open")
	assert.Equal(t, int64(rec.NumCallTotal), info[0].NumCallTotal)
	assert.Equal(t, int64(rec.NumDomain), info[0].NumDomain)
	assert.Equal(t, int64(rec.NumProject), info[0].NumProject)
	assert.Equal(t, rec.DefLocation, info[0].DefLoc)
	assert.Equal(t, rec.MultiDef, info[0].IsMulDef)
	assert.Equal(t, rec.OutProjectDef, info[0].HasOutDef)

	post, err := store.GetAllPostbranch()
	require.NoError(t, err)
	require.Len(t, post, 1)
	assert.Equal(t, int64(1), post[0].NumPrebranchCall)
	assert.Equal(t, int64(2), post[0].NumPostbranchCall)
}

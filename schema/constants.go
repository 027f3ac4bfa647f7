package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// MatchMode represents how a catalog name is matched against a path.
	MatchMode string

	// RecordKind names one recorder that can be switched on or off.
	RecordKind string

	// ObservationKind is the discriminator of one line in the observation stream.
	ObservationKind string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Path match modes.
//
// StrictMatch requires a separator on both sides of the name ("/name/"), PrefixMatch
// only requires the leading one ("/name"). Both are found in persisted data, so the
// choice is exposed as a compatibility flag.
const (
	StrictMatch MatchMode = "strict" // default
	PrefixMatch MatchMode = "prefix"
)

// Recorders selectable through configuration.
const (
	RecordCalls         RecordKind = "calls"
	RecordFunctionCalls RecordKind = "function-calls"
	RecordBranchCalls   RecordKind = "branch-calls"
	RecordPrebranch     RecordKind = "prebranch"
	RecordPostbranch    RecordKind = "postbranch"
	RecordCallGraph     RecordKind = "call-graph"
)

// Observation kinds accepted on the input stream.
const (
	UnitObservation         ObservationKind = "unit"
	CallObservationKind     ObservationKind = "call"
	FunctionCallObservation ObservationKind = "function_call"
	BranchCallObservation   ObservationKind = "branch_call"
	PrebranchObservation    ObservationKind = "prebranch"
	PostbranchObservation   ObservationKind = "postbranch"
	CallGraphObservation    ObservationKind = "call_graph"
)

// Encoding constants shared with already-persisted data.
const (
	// ListDelimiter joins the elements of a repeated field in one column.
	ListDelimiter = "#-_-#"

	// EmptyListPlaceholder is stored for a repeated field with zero elements.
	EmptyListPlaceholder = "-"

	// DefLocationDelimiter joins distinct definition locations of one call.
	DefLocationDelimiter = "#"

	// SetDelimiter wraps every member of a stored name set, as in "#a#b#".
	SetDelimiter = "#"
)

// AllRecordKinds lists every recorder in a stable order.
var AllRecordKinds = []RecordKind{
	RecordCalls, RecordFunctionCalls, RecordBranchCalls,
	RecordPrebranch, RecordPostbranch, RecordCallGraph,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidMatchModes lists all valid path match modes.
var ValidMatchModes = map[MatchMode]struct{}{
	StrictMatch: {},
	PrefixMatch: {},
}

// ValidRecordKinds lists all valid recorder names.
var ValidRecordKinds = map[RecordKind]struct{}{
	RecordCalls:         {},
	RecordFunctionCalls: {},
	RecordBranchCalls:   {},
	RecordPrebranch:     {},
	RecordPostbranch:    {},
	RecordCallGraph:     {},
}

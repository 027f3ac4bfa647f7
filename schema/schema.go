// Package schema holds the data types shared by the catalog, aggregation, persistence and output layers.
package schema

// Identity is the (domain, project) pair a path resolves to, with its catalog IDs.
type Identity struct {
	Domain    string `json:"domain"`
	Project   string `json:"project"`
	DomainID  int    `json:"domain_id"`
	ProjectID int    `json:"project_id"` // global, flattened across domains
}

// CallRecord is the in-memory aggregate of every observation of one call name.
// Names are not globally unique across unrelated functions; observations that share a
// name share a record.
type CallRecord struct {
	ID            int         `json:"id"` // 1-based, in order of first observation
	CallName      string      `json:"call_name"`
	DefLocation   string      `json:"def_location"` // may hold several "#"-joined locations
	OutProjectDef bool        `json:"out_project_def"`
	MultiDef      bool        `json:"multi_def"`
	NumDomain     int         `json:"num_domain"`
	NumProject    int         `json:"num_project"`
	NumCallTotal  int         `json:"num_call_total"`
	DomainCounts  map[int]int `json:"domain_counts"`
	ProjectCounts map[int]int `json:"project_counts"`
}

// DomainCount returns the number of observations in the given domain.
func (r *CallRecord) DomainCount(domainID int) int {
	return r.DomainCounts[domainID]
}

// ProjectCount returns the number of observations in the given global project.
func (r *CallRecord) ProjectCount(projectID int) int {
	return r.ProjectCounts[projectID]
}

// CallObservation is one classified call handed to the durable call_info mirror.
type CallObservation struct {
	Identity     Identity
	CallName     string
	DefLocation  string
	OutOfProject bool
}

// FunctionCall is one raw call site, logged to function_call and counted in call_statistic.
type FunctionCall struct {
	CallName   string `json:"call_name"`
	CallLoc    string `json:"call_loc"`
	CallDefLoc string `json:"call_def_loc"`
	CallStr    string `json:"call_str"`
}

// BranchCall is one branch-guarded call together with the logging call paired with it.
type BranchCall struct {
	CallName    string   `json:"call_name"`
	CallDefLoc  string   `json:"call_def_loc"`
	CallID      string   `json:"call_id"` // call-site location, unique per row
	CallStr     string   `json:"call_str"`
	CallReturn  []string `json:"call_return"` // expressions that consume the return value
	CallArgs    []string `json:"call_args"`
	ExprNodes   []string `json:"expr_nodes"`
	ExprStrs    []string `json:"expr_strs"` // branch conditions, outermost first
	PathNumbers []int    `json:"path_numbers"`
	CaseLabels  []string `json:"case_labels"`
	Depth       int      `json:"depth"`

	LogName     string   `json:"log_name"`
	LogDefLoc   string   `json:"log_def_loc"`
	LogID       string   `json:"log_id"`
	LogStr      string   `json:"log_str"`
	LogArgs     []string `json:"log_args"`
	LogRetType  string   `json:"log_ret_type"`
	LogArgTypes []string `json:"log_arg_types"`
}

// BranchLevel returns the nesting depth of the branch guarding the call.
// An explicit depth wins; otherwise one level per branch condition is assumed.
func (b BranchCall) BranchLevel() int {
	if b.Depth > 0 {
		return b.Depth
	}
	return len(b.ExprStrs)
}

// CoOccurrence pairs an operation with a logging or error-handling call seen near it.
type CoOccurrence struct {
	CallName   string `json:"call_name"`
	CallLoc    string `json:"call_loc"`
	CallDefLoc string `json:"call_def_loc"`
	LogName    string `json:"log_name"`
	LogDefLoc  string `json:"log_def_loc"`
}

// CallGraphEdge is one caller -> callee edge. Repeated edges are kept.
type CallGraphEdge struct {
	FuncName   string `json:"func_name"`
	FuncDefLoc string `json:"func_def_loc"`
	FuncSize   int    `json:"func_size"`
	CallLoc    string `json:"call_loc"`
	CallName   string `json:"call_name"`
	CallDefLoc string `json:"call_def_loc"`
}

// Observation is one line of the observation stream emitted by the analysis front end.
type Observation struct {
	Kind ObservationKind `json:"kind"`

	// unit
	Unit  string   `json:"unit,omitempty"`
	Flags []string `json:"flags,omitempty"`

	// call, function_call, prebranch, postbranch, call_graph
	CallName   string `json:"call_name,omitempty"`
	CallLoc    string `json:"call_loc,omitempty"`
	CallDefLoc string `json:"call_def_loc,omitempty"`
	CallStr    string `json:"call_str,omitempty"`
	LogName    string `json:"log_name,omitempty"`
	LogDefLoc  string `json:"log_def_loc,omitempty"`
	FuncName   string `json:"func_name,omitempty"`
	FuncDefLoc string `json:"func_def_loc,omitempty"`
	FuncSize   int    `json:"func_size,omitempty"`

	// branch_call
	Branch *BranchCall `json:"branch,omitempty"`
}

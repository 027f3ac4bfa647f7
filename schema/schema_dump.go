package schema

// DumpHeader lists the fixed leading columns of a dump, in the order they were always printed.
var DumpHeader = []string{
	"Call ID", "Call Name", "Def Location", "Has Out Def", "Is Multi Def",
	"Num Domain", "Num Project", "Num Call Total",
}

// DumpRow is one tracked call with its per-domain and per-project breakdown laid out in
// catalog order.
type DumpRow struct {
	ID            int    `json:"id"`
	CallName      string `json:"call_name"`
	DefLocation   string `json:"def_location"`
	HasOutDef     bool   `json:"has_out_def"`
	IsMultiDef    bool   `json:"is_multi_def"`
	NumDomain     int    `json:"num_domain"`
	NumProject    int    `json:"num_project"`
	NumCallTotal  int    `json:"num_call_total"`
	DomainCounts  []int  `json:"domain_counts"`
	ProjectCounts []int  `json:"project_counts"`
}

// DumpRenderModel is everything a dump writer needs, independent of output format.
type DumpRenderModel struct {
	Domains  []string  `json:"domains"`
	Projects []string  `json:"projects"` // "domain:project", in global project ID order
	Calls    []DumpRow `json:"calls"`
}

// Columns returns the full header: fixed columns, then "domain:<d>" per domain, then
// "<d>:<p>" per project.
func (m *DumpRenderModel) Columns() []string {
	cols := append([]string(nil), DumpHeader...)
	for _, d := range m.Domains {
		cols = append(cols, "domain:"+d)
	}
	return append(cols, m.Projects...)
}

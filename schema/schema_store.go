package schema

// CallStatisticRecord represents a row from the call_statistic table.
type CallStatisticRecord struct {
	ID          int64
	CallName    string
	CallDefLoc  string
	DomainName  string
	ProjectName string
	CallNumber  int64
}

// CallInfoRecord represents a row from the call_info table.
type CallInfoRecord struct {
	ID           int64
	CallName     string
	DefLoc       string
	HasOutDef    bool
	IsMulDef     bool
	NumDomain    int64
	NumProject   int64
	NumCallTotal int64
}

// CallGraphRecord represents a row from the call_graph table.
type CallGraphRecord struct {
	ID          int64
	FuncName    string
	FuncDefLoc  string
	FuncSize    int64
	DomainName  string
	ProjectName string
	CallName    string
	CallDefLoc  string
}

// PrebranchRecord represents a row from the prebranch_call table.
type PrebranchRecord struct {
	ID          int64
	CallName    string
	CallDefLoc  string
	DomainName  string
	ProjectName string
	LogName     string
	LogDefLoc   string
	NumLogTime  int64
}

// PostbranchRecord represents a row from the postbranch_call table.
type PostbranchRecord struct {
	ID                int64
	LogName           string
	LogDefLoc         string
	DomainName        string
	ProjectName       string
	PrebranchCall     string // "#a#b#" set of distinct preceding calls
	NumPrebranchCall  int64
	NumPostbranchCall int64
}

// BranchCallRecord represents a row from the branch_call table, repeated fields still encoded.
type BranchCallRecord struct {
	ID            int64
	DomainName    string
	ProjectName   string
	CallName      string
	CallDefLoc    string
	CallID        string
	CallStr       string
	CallReturn    string
	CallArgVec    string
	CallArgNum    int64
	ExprNodeVec   string
	ExprNodeNum   int64
	ExprStrVec    string
	PathNumberVec string
	CaseLabelVec  string
	BranchLevel   int64
	LogName       string
	LogDefLoc     string
	LogID         string
	LogStr        string
	LogArgVec     string
	LogArgNum     int64
	LogRetType    string
	LogArgTypeVec string
	LogArgTypeNum int64
}

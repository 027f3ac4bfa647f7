package schema

// StoreStatus represents the status of the observation store.
type StoreStatus struct {
	Backend    string           `json:"backend"`
	Connected  bool             `json:"connected"`
	TotalRows  int64            `json:"total_rows"`
	TableSizes map[string]int64 `json:"table_sizes"`
}

// IngestStats counts what happened to every observation handed to the engine.
type IngestStats struct {
	Lines             int `json:"lines"`
	Malformed         int `json:"malformed"`
	Accepted          int `json:"accepted"`
	SkippedUnits      int `json:"skipped_units"`
	Skipped           int `json:"skipped"` // observations inside a skipped unit
	Unclassified      int `json:"unclassified"`
	CapacityExceeded  int `json:"capacity_exceeded"`
	PersistenceFailed int `json:"persistence_failed"`
	Disabled          int `json:"disabled"`
}

// Dropped returns the number of observations that were not recorded because of an error.
func (s IngestStats) Dropped() int {
	return s.Unclassified + s.CapacityExceeded + s.PersistenceFailed
}

package persist

import (
	"fmt"
	"io"

	"github.com/huangsam/ehminer/schema"
)

// GetStatus returns status information about the store.
func (s *Store) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}

	if s.backend == schema.NoneBackend || s.db == nil {
		return status, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAllTables(); err != nil {
		return status, err
	}

	for _, table := range allTables {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend))
		var count int64
		if err := s.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
		status.TotalRows += count
	}
	return status, nil
}

// PrintStoreStatus prints store status information in table order.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Rows: %d\n", status.TotalRows)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range allTables {
		size, ok := status.TableSizes[table]
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, size)
	}
}

package persist

import (
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
	"github.com/stretchr/testify/mock"
)

// MockObservationStore is a mock implementation of ObservationStore for testing.
type MockObservationStore struct {
	mock.Mock
}

var _ contract.ObservationStore = &MockObservationStore{} // Compile-time check

// RecordCallInfo implements the ObservationStore interface.
func (m *MockObservationStore) RecordCallInfo(obs schema.CallObservation) error {
	return m.Called(obs).Error(0)
}

// RecordFunctionCall implements the ObservationStore interface.
func (m *MockObservationStore) RecordFunctionCall(id schema.Identity, call schema.FunctionCall) error {
	return m.Called(id, call).Error(0)
}

// RecordBranchCall implements the ObservationStore interface.
func (m *MockObservationStore) RecordBranchCall(id schema.Identity, call schema.BranchCall) error {
	return m.Called(id, call).Error(0)
}

// RecordPrebranch implements the ObservationStore interface.
func (m *MockObservationStore) RecordPrebranch(id schema.Identity, co schema.CoOccurrence) error {
	return m.Called(id, co).Error(0)
}

// RecordPostbranch implements the ObservationStore interface.
func (m *MockObservationStore) RecordPostbranch(id schema.Identity, co schema.CoOccurrence) error {
	return m.Called(id, co).Error(0)
}

// RecordCallGraphEdge implements the ObservationStore interface.
func (m *MockObservationStore) RecordCallGraphEdge(id schema.Identity, edge schema.CallGraphEdge) error {
	return m.Called(id, edge).Error(0)
}

// GetStatus implements the ObservationStore interface.
func (m *MockObservationStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.StoreStatus)
	return status, args.Error(1)
}

// Close implements the ObservationStore interface.
func (m *MockObservationStore) Close() error {
	return m.Called().Error(0)
}

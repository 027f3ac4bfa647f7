package catalog

import (
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
	"github.com/stretchr/testify/mock"
)

// MockClassifier is a mock implementation of Classifier for testing.
type MockClassifier struct {
	mock.Mock
}

var _ contract.Classifier = &MockClassifier{} // Compile-time check

// Classify implements the Classifier interface.
func (m *MockClassifier) Classify(path string) (schema.Identity, error) {
	args := m.Called(path)
	return args.Get(0).(schema.Identity), args.Error(1)
}

// IsOutOfProject implements the Classifier interface.
func (m *MockClassifier) IsOutOfProject(defLocation string, id schema.Identity) bool {
	args := m.Called(defLocation, id)
	return args.Bool(0)
}

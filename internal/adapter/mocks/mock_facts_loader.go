// Package mocks holds testify mocks of the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
)

// MockFactsLoader is a mock of adapter.FactsLoader.
type MockFactsLoader struct {
	mock.Mock
}

// Load mocks adapter.FactsLoader.Load.
func (ml *MockFactsLoader) Load(ctx context.Context, req adapter.LoadRequest) (adapter.Facts, error) {
	ret := ml.Called(ctx, req)

	facts, _ := ret.Get(0).(adapter.Facts)

	return facts, ret.Error(1)
}

var _ adapter.FactsLoader = (*MockFactsLoader)(nil)

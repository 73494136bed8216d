package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// MockFindingStore is a mock of adapter.FindingStore.
type MockFindingStore struct {
	mock.Mock
}

// Save mocks adapter.FindingStore.Save.
func (ms *MockFindingStore) Save(ctx context.Context, dir m.Path, report m.Report) error {
	return ms.Called(ctx, dir, report).Error(0)
}

// Load mocks adapter.FindingStore.Load.
func (ms *MockFindingStore) Load(ctx context.Context, dir m.Path) (m.Report, error) {
	ret := ms.Called(ctx, dir)

	report, _ := ret.Get(0).(m.Report)

	return report, ret.Error(1)
}

var _ adapter.FindingStore = (*MockFindingStore)(nil)

// Package mocks holds testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"perfsieve.dev/pkg/perfsieve/internal/domain"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// MockWorkflow is a mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted on cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mw := &MockWorkflow{}
	mw.Test(t)

	t.Cleanup(func() { mw.AssertExpectations(t) })

	return mw
}

// Analyze mocks domain.Workflow.Analyze.
func (mw *MockWorkflow) Analyze(ctx context.Context, args domain.AnalyzeArgs) (m.Report, error) {
	ret := mw.Called(ctx, args)

	var report m.Report
	if fn, ok := ret.Get(0).(func(context.Context, domain.AnalyzeArgs) m.Report); ok {
		report = fn(ctx, args)
	} else if r, ok := ret.Get(0).(m.Report); ok {
		report = r
	}

	return report, ret.Error(1)
}

// Rules mocks domain.Workflow.Rules.
func (mw *MockWorkflow) Rules(ctx context.Context, settings domain.RuleSettings) error {
	return mw.Called(ctx, settings).Error(0)
}

// View mocks domain.Workflow.View.
func (mw *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return mw.Called(ctx, args).Error(0)
}

var _ domain.Workflow = (*MockWorkflow)(nil)

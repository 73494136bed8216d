// Package mocks holds testify mocks of the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"perfsieve.dev/pkg/perfsieve/internal/controller"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// MockUI is a mock of controller.UI.
type MockUI struct {
	mock.Mock
}

// Start mocks controller.UI.Start.
func (mu *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	args := []any{ctx}
	for _, option := range options {
		args = append(args, option)
	}

	return mu.Called(args...).Error(0)
}

// Close mocks controller.UI.Close.
func (mu *MockUI) Close(ctx context.Context) {
	mu.Called(ctx)
}

// Wait mocks controller.UI.Wait.
func (mu *MockUI) Wait(ctx context.Context) {
	mu.Called(ctx)
}

// DisplayPassInfo mocks controller.UI.DisplayPassInfo.
func (mu *MockUI) DisplayPassInfo(ctx context.Context, info controller.PassInfo) {
	mu.Called(ctx, info)
}

// DisplayFindings mocks controller.UI.DisplayFindings.
func (mu *MockUI) DisplayFindings(ctx context.Context, report m.Report) error {
	return mu.Called(ctx, report).Error(0)
}

// DisplayRules mocks controller.UI.DisplayRules.
func (mu *MockUI) DisplayRules(ctx context.Context, rules []controller.RuleStatus) error {
	return mu.Called(ctx, rules).Error(0)
}

var _ controller.UI = (*MockUI)(nil)

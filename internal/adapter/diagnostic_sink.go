package adapter

import (
	"context"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// DiagnosticSink consumes the findings of a completed analysis pass.
type DiagnosticSink interface {
	Report(ctx context.Context, findings []m.Finding) error
}

// DiagnosticSinkFunc adapts a function to DiagnosticSink.
type DiagnosticSinkFunc func(ctx context.Context, findings []m.Finding) error

// Report implements DiagnosticSink.
func (f DiagnosticSinkFunc) Report(ctx context.Context, findings []m.Finding) error {
	return f(ctx, findings)
}

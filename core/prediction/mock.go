package prediction

import (
	"context"
	"sync"

	"github.com/kilianp07/healthpredictor/core/model"
)

// MockPredictor returns a configured result or error and records the forms it
// received.
type MockPredictor struct {
	Result model.Result
	Err    error

	mu    sync.Mutex
	calls []model.FormInput
}

// Predict records in and returns the configured outcome.
func (m *MockPredictor) Predict(ctx context.Context, in model.FormInput) (model.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.Result{}, &TransportError{Op: "request", Err: err}
	}
	if m.Err != nil {
		return model.Result{}, m.Err
	}
	return m.Result, nil
}

// Calls returns a copy of the received forms.
func (m *MockPredictor) Calls() []model.FormInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.FormInput, len(m.calls))
	copy(cp, m.calls)
	return cp
}

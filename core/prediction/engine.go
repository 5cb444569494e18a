package prediction

import (
	"context"

	"github.com/kilianp07/healthpredictor/core/model"
)

// Predictor submits a form and returns the backend's assessment.
type Predictor interface {
	// Predict returns a Result, an *ApplicationError when the backend rejects
	// the input, or a *TransportError for any other failure.
	Predict(ctx context.Context, in model.FormInput) (model.Result, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, in model.FormInput) (model.Result, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, in model.FormInput) (model.Result, error) {
	return f(ctx, in)
}

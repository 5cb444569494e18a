package backend

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/healthpredictor/core/model"
)

// Feature order follows model.Fields().
var (
	centers = []float64{54, 0.5, 130, 240, 150, 1, 1.5, 0.15, 0.5, 0.3, 1.4, 0.7, 2.3}
	weights = []float64{0.04, 0.5, 0.02, 0.006, -0.03, 0.6, 0.35, 0.3, 0.25, 0.9, -0.3, 0.8, 0.5}
)

const bias = -1.0

// Risk thresholds on the probability.
const (
	healthyBelow = 0.2
	mildBelow    = 0.5
)

// Probability returns a deterministic risk probability for in.
func Probability(in model.FormInput) float64 {
	fields := model.Fields()
	x := make([]float64, len(fields))
	for i, f := range fields {
		x[i] = in.Get(f)
	}
	floats.Sub(x, centers)
	z := bias + floats.Dot(weights, x)
	return 1 / (1 + math.Exp(-z))
}

// Classify maps a probability to its risk category.
func Classify(p float64) model.RiskCategory {
	switch {
	case p < healthyBelow:
		return model.RiskHealthy
	case p < mildBelow:
		return model.RiskMild
	default:
		return model.RiskAtRisk
	}
}

// HealthScore converts a risk probability into a 0-100 score rounded to two
// decimals.
func HealthScore(p float64) float64 {
	return math.Round((1-p)*10000) / 100
}

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/healthpredictor/core/model"
)

func highRiskInput() model.FormInput {
	return model.DefaultInput().
		With(model.FieldAge, 70).
		With(model.FieldSex, 1).
		With(model.FieldRestingBP, 180).
		With(model.FieldCholesterol, 350).
		With(model.FieldMaxHeartRate, 100).
		With(model.FieldOldpeak, 4).
		With(model.FieldChestPain, 3).
		With(model.FieldFastingBloodSugar, 1).
		With(model.FieldRestingECG, 2).
		With(model.FieldExerciseAngina, 1).
		With(model.FieldSlope, 0).
		With(model.FieldMajorVessels, 3).
		With(model.FieldThal, 3)
}

func TestClassifyThresholds(t *testing.T) {
	assert.Equal(t, model.RiskHealthy, Classify(0))
	assert.Equal(t, model.RiskHealthy, Classify(0.19))
	assert.Equal(t, model.RiskMild, Classify(0.2))
	assert.Equal(t, model.RiskMild, Classify(0.49))
	assert.Equal(t, model.RiskAtRisk, Classify(0.5))
	assert.Equal(t, model.RiskAtRisk, Classify(1))
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 100.0, HealthScore(0))
	assert.Equal(t, 0.0, HealthScore(1))
	assert.Equal(t, 87.66, HealthScore(0.1234))
}

func TestProbabilityDefaultsAreHealthy(t *testing.T) {
	p := Probability(model.DefaultInput())
	assert.Less(t, p, healthyBelow)
	assert.Equal(t, model.RiskHealthy, Classify(p))
	assert.GreaterOrEqual(t, HealthScore(p), 80.0)
}

func TestProbabilityHighRisk(t *testing.T) {
	p := Probability(highRiskInput())
	assert.Equal(t, model.RiskAtRisk, Classify(p))
	assert.Less(t, HealthScore(p), 60.0)
}

func TestProbabilityDeterministicAndMonotonic(t *testing.T) {
	in := model.DefaultInput()
	assert.Equal(t, Probability(in), Probability(in))
	assert.Greater(t, Probability(in.With(model.FieldExerciseAngina, 1)), Probability(in))
	assert.Greater(t, Probability(in.With(model.FieldMajorVessels, 3)), Probability(in))
	assert.Less(t, Probability(in.With(model.FieldMaxHeartRate, 200)), Probability(in))
}

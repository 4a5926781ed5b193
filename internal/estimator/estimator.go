package estimator

import (
	"math"

	"diagnosis-service/internal/models"
)

// DefaultStep is the per-answer nudge applied to the running estimate.
const DefaultStep = 0.1

// zConfidence95 is the normal quantile behind the 95% interval.
const zConfidence95 = 1.96

// Estimate is the result of a batch estimation over a response set.
type Estimate struct {
	Ability            float64    `json:"ability"`
	StandardError      float64    `json:"standard_error"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	SampleSize         int        `json:"sample_size"`
}

// Estimator produces ability estimates on the models.AbilityMin..AbilityMax
// scale. The incremental path keeps a session responsive between answers;
// the batch path recomputes from the full response history for reports.
type Estimator struct {
	step float64
}

func New(step float64) *Estimator {
	if step <= 0 {
		step = DefaultStep
	}
	return &Estimator{step: step}
}

// ClampAbility bounds a value to the ability scale.
func ClampAbility(value float64) float64 {
	return math.Min(models.AbilityMax, math.Max(models.AbilityMin, value))
}

// IncrementalUpdate moves the running estimate one step after an answer.
func (e *Estimator) IncrementalUpdate(current float64, correct bool) float64 {
	if correct {
		return ClampAbility(current + e.step)
	}
	return ClampAbility(current - e.step)
}

// StandardError depends only on the sample size; zero samples count as one.
func StandardError(sampleSize int) float64 {
	if sampleSize < 1 {
		sampleSize = 1
	}
	return 1 / math.Sqrt(float64(sampleSize))
}

// EstimateBatch recomputes ability from scratch over a response set.
// Difficulty is both weight and score, so correct answers on hard items
// dominate the estimate. An empty set yields a neutral ability of zero.
func (e *Estimator) EstimateBatch(responses []models.QuestionResponse) Estimate {
	var weightedScore, totalWeight float64
	for _, response := range responses {
		difficulty := float64(models.ClampDifficulty(response.Difficulty))
		totalWeight += difficulty
		if response.Correct {
			weightedScore += difficulty * difficulty
		}
	}

	ability := 0.0
	if totalWeight > 0 {
		ability = ClampAbility((weightedScore/totalWeight - 2.5) * 1.2)
	}

	se := StandardError(len(responses))
	return Estimate{
		Ability:       ability,
		StandardError: se,
		ConfidenceInterval: [2]float64{
			ClampAbility(ability - zConfidence95*se),
			ClampAbility(ability + zConfidence95*se),
		},
		SampleSize: len(responses),
	}
}

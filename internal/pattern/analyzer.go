package pattern

import (
	"github.com/montanaflynn/stats"

	"diagnosis-service/internal/models"
)

const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// Analysis carries the derived signals for one session. These enrich
// the UI only; nothing here feeds back into the session lifecycle.
type Analysis struct {
	SessionID                  string  `json:"session_id"`
	QuestionsAnswered          int     `json:"questions_answered"`
	AccuracyRate               float64 `json:"accuracy_rate"`
	ConsistencyScore           float64 `json:"consistency_score"`
	AbilityTrend               string  `json:"ability_trend"`
	TrendSlope                 float64 `json:"trend_slope"`
	LearningEfficiency         float64 `json:"learning_efficiency"`
	AverageTimeSeconds         float64 `json:"average_time_seconds"`
	AverageCorrectDifficulty   float64 `json:"average_correct_difficulty"`
	AverageIncorrectDifficulty float64 `json:"average_incorrect_difficulty"`
}

// Analyzer reads a session's history and derives trend, consistency
// and efficiency signals.
type Analyzer struct {
	windowSize       int
	referenceSeconds float64
	slopeEpsilon     float64
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		windowSize:       5,
		referenceSeconds: 60,
		slopeEpsilon:     0.01,
	}
}

func (a *Analyzer) Analyze(session *models.DiagnosisSession, responses []models.QuestionResponse) *Analysis {
	analysis := &Analysis{
		SessionID:         session.ID,
		QuestionsAnswered: session.QuestionsAnswered,
		AccuracyRate:      session.AccuracyRate,
	}

	analysis.ConsistencyScore = a.consistency(session.AbilityProgression)
	analysis.TrendSlope, analysis.AbilityTrend = a.trend(session.AbilityProgression)

	if len(responses) > 0 {
		times := make([]float64, 0, len(responses))
		var correctDifficulties, incorrectDifficulties []float64
		for _, response := range responses {
			times = append(times, float64(response.TimeSpentSeconds))
			difficulty := float64(models.ClampDifficulty(response.Difficulty))
			if response.Correct {
				correctDifficulties = append(correctDifficulties, difficulty)
			} else {
				incorrectDifficulties = append(incorrectDifficulties, difficulty)
			}
		}
		analysis.AverageTimeSeconds, _ = stats.Mean(times)
		if len(correctDifficulties) > 0 {
			analysis.AverageCorrectDifficulty, _ = stats.Mean(correctDifficulties)
		}
		if len(incorrectDifficulties) > 0 {
			analysis.AverageIncorrectDifficulty, _ = stats.Mean(incorrectDifficulties)
		}
	}

	analysis.LearningEfficiency = a.efficiency(analysis.AccuracyRate, analysis.AverageTimeSeconds)
	return analysis
}

// consistency maps the variance of the recent estimates onto (0, 1]:
// a settled estimate scores 1, a jumpy one approaches 0.
func (a *Analyzer) consistency(progression []models.AbilityObservation) float64 {
	if len(progression) < 2 {
		return 1.0
	}
	window := a.windowSize
	if len(progression) < window {
		window = len(progression)
	}
	estimates := make([]float64, 0, window)
	for _, obs := range progression[len(progression)-window:] {
		estimates = append(estimates, obs.NewEstimate)
	}
	variance, err := stats.PopulationVariance(estimates)
	if err != nil {
		return 1.0
	}
	return 1.0 / (1.0 + variance)
}

// trend fits a line through the full estimate series and classifies the
// slope against a small epsilon band around zero.
func (a *Analyzer) trend(progression []models.AbilityObservation) (float64, string) {
	if len(progression) < 2 {
		return 0, TrendStable
	}

	series := make(stats.Series, len(progression))
	for i, obs := range progression {
		series[i] = stats.Coordinate{X: float64(i), Y: obs.NewEstimate}
	}
	regression, err := stats.LinearRegression(series)
	if err != nil || len(regression) < 2 {
		return 0, TrendStable
	}

	first := regression[0]
	last := regression[len(regression)-1]
	slope := (last.Y - first.Y) / (last.X - first.X)

	switch {
	case slope > a.slopeEpsilon:
		return slope, TrendImproving
	case slope < -a.slopeEpsilon:
		return slope, TrendDeclining
	default:
		return slope, TrendStable
	}
}

// efficiency discounts accuracy by answer pace relative to the
// reference time per item.
func (a *Analyzer) efficiency(accuracy, averageSeconds float64) float64 {
	if averageSeconds < 0 {
		averageSeconds = 0
	}
	return accuracy * a.referenceSeconds / (a.referenceSeconds + averageSeconds)
}

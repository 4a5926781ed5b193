package report

import (
	"fmt"
	"sort"
	"time"

	"diagnosis-service/internal/estimator"
	"diagnosis-service/internal/models"
)

// Config tunes the synthesis thresholds. Mastery scores are on the
// 0..100 scale.
type Config struct {
	WeaknessThreshold    float64 `json:"weakness_threshold"`
	StrengthThreshold    float64 `json:"strength_threshold"`
	TargetMastery        float64 `json:"target_mastery"`
	TopN                 int     `json:"top_n"`
	DefaultPriority      int     `json:"default_priority"`
	HoursPerMasteryPoint float64 `json:"hours_per_mastery_point"`
}

func DefaultConfig() *Config {
	return &Config{
		WeaknessThreshold:    60,
		StrengthThreshold:    80,
		TargetMastery:        80,
		TopN:                 5,
		DefaultPriority:      models.DefaultPriority,
		HoursPerMasteryPoint: 0.1,
	}
}

// Synthesizer turns a report's raw response history into the final
// diagnosis artifacts. Apart from the timestamps, output depends only
// on the responses and the knowledge point metadata, so re-running a
// synthesis reproduces the same report.
type Synthesizer struct {
	config *Config
	est    *estimator.Estimator
}

func NewSynthesizer(config *Config) *Synthesizer {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TopN < 1 {
		config.TopN = DefaultConfig().TopN
	}
	return &Synthesizer{
		config: config,
		est:    estimator.New(estimator.DefaultStep),
	}
}

// Synthesize fills the report's aggregate fields, derives the heatmap,
// the weakness/strength rankings and the learning path, marks the
// report completed, and returns the weakness documents to persist.
func (s *Synthesizer) Synthesize(rep *models.DiagnosisReport, responses []models.QuestionResponse, points map[string]models.KnowledgePoint) ([]models.WeaknessPoint, error) {
	if rep == nil {
		return nil, fmt.Errorf("synthesize: report is nil")
	}

	batch := s.est.EstimateBatch(responses)
	rep.AbilityEstimate = batch.Ability
	rep.AbilityStandardError = batch.StandardError
	rep.ConfidenceInterval = batch.ConfidenceInterval
	rep.OverallScore = overallScore(responses)
	rep.AccuracyRate = accuracyRate(responses)

	rep.MasteryLevels = s.buildMasteryLevels(responses, points)
	rep.Heatmap = s.buildHeatmap(rep.MasteryLevels)

	weaknesses, strengths := s.rankMastery(rep.ID, rep.MasteryLevels, points)
	now := time.Now().UTC()
	for i := range weaknesses {
		weaknesses[i].CreatedAt = now
	}

	rep.WeaknessPoints = weaknesses
	rep.StrengthPoints = strengths
	rep.LearningPath = s.buildLearningPath(weaknesses, points)
	rep.Recommendations = s.buildRecommendations(rep)

	rep.Status = models.ReportStatusCompleted
	rep.CompletedAt = now
	return weaknesses, nil
}

// overallScore is the difficulty-weighted share of earned credit.
func overallScore(responses []models.QuestionResponse) float64 {
	var earned, possible float64
	for _, response := range responses {
		difficulty := float64(models.ClampDifficulty(response.Difficulty))
		possible += difficulty
		if response.Correct {
			earned += difficulty
		}
	}
	if possible == 0 {
		return 0
	}
	return earned / possible * 100
}

func accuracyRate(responses []models.QuestionResponse) float64 {
	if len(responses) == 0 {
		return 0
	}
	correct := 0
	for _, response := range responses {
		if response.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(responses))
}

// buildMasteryLevels aggregates responses per knowledge point.
func (s *Synthesizer) buildMasteryLevels(responses []models.QuestionResponse, points map[string]models.KnowledgePoint) map[string]models.KnowledgePointMastery {
	type tally struct {
		total         int
		correct       int
		timeSpent     int
		difficultySum int
		errorTypes    map[string]int
	}

	tallies := map[string]*tally{}
	for _, response := range responses {
		if response.KnowledgePointID == "" {
			continue
		}
		tl := tallies[response.KnowledgePointID]
		if tl == nil {
			tl = &tally{errorTypes: map[string]int{}}
			tallies[response.KnowledgePointID] = tl
		}
		tl.total++
		if response.Correct {
			tl.correct++
		}
		tl.timeSpent += response.TimeSpentSeconds
		tl.difficultySum += models.ClampDifficulty(response.Difficulty)
		if response.ErrorType != "" {
			tl.errorTypes[response.ErrorType]++
		}
	}

	mastery := make(map[string]models.KnowledgePointMastery, len(tallies))
	for id, tl := range tallies {
		accuracy := float64(tl.correct) / float64(tl.total)
		mastery[id] = models.KnowledgePointMastery{
			KnowledgePointID:   id,
			KnowledgePointName: s.pointName(id, points),
			MasteryScore:       accuracy * 100,
			TotalResponses:     tl.total,
			CorrectResponses:   tl.correct,
			AccuracyRate:       accuracy,
			AverageDifficulty:  float64(tl.difficultySum) / float64(tl.total),
			TimeSpentSeconds:   tl.timeSpent,
			ErrorTypes:         tl.errorTypes,
		}
	}
	return mastery
}

// buildHeatmap lays the mastery map out as parallel arrays, ordered by
// knowledge point id so repeated runs agree.
func (s *Synthesizer) buildHeatmap(mastery map[string]models.KnowledgePointMastery) models.HeatmapData {
	ids := sortedKeys(mastery)
	heatmap := models.HeatmapData{
		KnowledgePoints:     make([]string, 0, len(ids)),
		MasteryScores:       make([]float64, 0, len(ids)),
		AverageDifficulties: make([]float64, 0, len(ids)),
		TimeSpentSeconds:    make([]int, 0, len(ids)),
		ErrorRates:          make([]float64, 0, len(ids)),
	}
	for _, id := range ids {
		entry := mastery[id]
		heatmap.KnowledgePoints = append(heatmap.KnowledgePoints, entry.KnowledgePointName)
		heatmap.MasteryScores = append(heatmap.MasteryScores, entry.MasteryScore)
		heatmap.AverageDifficulties = append(heatmap.AverageDifficulties, entry.AverageDifficulty)
		heatmap.TimeSpentSeconds = append(heatmap.TimeSpentSeconds, entry.TimeSpentSeconds)
		heatmap.ErrorRates = append(heatmap.ErrorRates, 1-entry.AccuracyRate)
	}
	return heatmap
}

func (s *Synthesizer) pointName(id string, points map[string]models.KnowledgePoint) string {
	if kp, ok := points[id]; ok && kp.Name != "" {
		return kp.Name
	}
	return id
}

func (s *Synthesizer) pointPriority(id string, points map[string]models.KnowledgePoint) int {
	if kp, ok := points[id]; ok && kp.Priority >= 1 && kp.Priority <= 5 {
		return kp.Priority
	}
	return s.config.DefaultPriority
}

func (s *Synthesizer) pointPrerequisites(id string, points map[string]models.KnowledgePoint) []string {
	if kp, ok := points[id]; ok && len(kp.Prerequisites) > 0 {
		prerequisites := make([]string, len(kp.Prerequisites))
		copy(prerequisites, kp.Prerequisites)
		return prerequisites
	}
	return []string{}
}

func sortedKeys(mastery map[string]models.KnowledgePointMastery) []string {
	keys := make([]string, 0, len(mastery))
	for key := range mastery {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

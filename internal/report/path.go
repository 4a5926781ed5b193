package report

import (
	"fmt"
	"math"
	"sort"

	"diagnosis-service/internal/models"
)

// priorityMultipliers scale remediation time by knowledge point
// priority; urgent points get more scheduled hours.
var priorityMultipliers = map[int]float64{
	1: 1.5,
	2: 1.3,
	3: 1.0,
	4: 0.8,
	5: 0.6,
}

// rankMastery splits the mastery map into ranked weakness and strength
// lists, each capped at TopN. Gaps order by (priority, mastery,
// knowledge point id) ascending; strengths by mastery descending.
func (s *Synthesizer) rankMastery(reportID string, mastery map[string]models.KnowledgePointMastery, points map[string]models.KnowledgePoint) ([]models.WeaknessPoint, []models.StrengthPoint) {
	gaps := []models.WeaknessPoint{}
	strengths := []models.StrengthPoint{}

	for _, id := range sortedKeys(mastery) {
		entry := mastery[id]
		switch {
		case entry.MasteryScore < s.config.WeaknessThreshold:
			priority := s.pointPriority(id, points)
			gaps = append(gaps, models.WeaknessPoint{
				ReportID:           reportID,
				KnowledgePointID:   id,
				KnowledgePointName: entry.KnowledgePointName,
				MasteryScore:       entry.MasteryScore,
				AccuracyRate:       entry.AccuracyRate,
				WeaknessLevel:      weaknessLevel(entry.MasteryScore),
				Priority:           priority,
				ErrorTypes:         entry.ErrorTypes,
				ImprovementHours:   s.improvementHours(entry.MasteryScore, priority),
			})
		case entry.MasteryScore >= s.config.StrengthThreshold:
			strengths = append(strengths, models.StrengthPoint{
				KnowledgePointID:   id,
				KnowledgePointName: entry.KnowledgePointName,
				MasteryScore:       entry.MasteryScore,
				AccuracyRate:       entry.AccuracyRate,
			})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Priority != gaps[j].Priority {
			return gaps[i].Priority < gaps[j].Priority
		}
		if gaps[i].MasteryScore != gaps[j].MasteryScore {
			return gaps[i].MasteryScore < gaps[j].MasteryScore
		}
		return gaps[i].KnowledgePointID < gaps[j].KnowledgePointID
	})
	sort.SliceStable(strengths, func(i, j int) bool {
		if strengths[i].MasteryScore != strengths[j].MasteryScore {
			return strengths[i].MasteryScore > strengths[j].MasteryScore
		}
		return strengths[i].KnowledgePointID < strengths[j].KnowledgePointID
	})

	if len(gaps) > s.config.TopN {
		gaps = gaps[:s.config.TopN]
	}
	if len(strengths) > s.config.TopN {
		strengths = strengths[:s.config.TopN]
	}
	return gaps, strengths
}

// weaknessLevel grades severity on 1..5: the lower the mastery, the
// higher the level.
func weaknessLevel(mastery float64) int {
	level := 5 - int(mastery/20)
	if level < 1 {
		return 1
	}
	if level > 5 {
		return 5
	}
	return level
}

// improvementHours estimates remediation time to reach the target
// mastery, rounded to a tenth of an hour.
func (s *Synthesizer) improvementHours(mastery float64, priority int) float64 {
	multiplier, ok := priorityMultipliers[priority]
	if !ok {
		multiplier = 1.0
	}
	hours := (s.config.TargetMastery - mastery) * s.config.HoursPerMasteryPoint * multiplier
	if hours < 0 {
		return 0
	}
	return math.Round(hours*10) / 10
}

// buildLearningPath emits one ordered remediation step per weakness.
func (s *Synthesizer) buildLearningPath(weaknesses []models.WeaknessPoint, points map[string]models.KnowledgePoint) []models.LearningPathStep {
	path := make([]models.LearningPathStep, 0, len(weaknesses))
	for i, weakness := range weaknesses {
		path = append(path, models.LearningPathStep{
			Sequence:           i + 1,
			KnowledgePointID:   weakness.KnowledgePointID,
			KnowledgePointName: weakness.KnowledgePointName,
			CurrentMastery:     weakness.MasteryScore,
			TargetMastery:      s.config.TargetMastery,
			EstimatedHours:     weakness.ImprovementHours,
			Strategy:           practiceStrategy(weakness.MasteryScore),
			Prerequisites:      s.pointPrerequisites(weakness.KnowledgePointID, points),
		})
	}
	return path
}

// practiceStrategy picks the remediation style for a mastery level.
func practiceStrategy(mastery float64) string {
	switch {
	case mastery < 30:
		return models.StrategyFoundationBuilding
	case mastery < 60:
		return models.StrategySkillDevelopment
	default:
		return models.StrategyMasteryRefinement
	}
}

// buildRecommendations writes the human-readable summary lines. All
// branches depend only on already-derived fields.
func (s *Synthesizer) buildRecommendations(rep *models.DiagnosisReport) []string {
	recommendations := []string{}

	if len(rep.WeaknessPoints) > 0 {
		top := rep.WeaknessPoints[0]
		recommendations = append(recommendations,
			fmt.Sprintf("Start with %s: mastery is %.0f%%, the weakest area in this diagnosis", top.KnowledgePointName, top.MasteryScore))
		if len(rep.LearningPath) > 0 {
			var hours float64
			for _, step := range rep.LearningPath {
				hours += step.EstimatedHours
			}
			recommendations = append(recommendations,
				fmt.Sprintf("Plan around %.1f hours across %d knowledge points to reach %.0f%% mastery", hours, len(rep.LearningPath), s.config.TargetMastery))
		}
	} else {
		recommendations = append(recommendations, "No weak knowledge points detected; keep practicing at the current level")
	}

	switch {
	case rep.AbilityEstimate >= 1.5:
		recommendations = append(recommendations, "Ability is well above the scale midpoint; favor difficulty 4-5 items for further growth")
	case rep.AbilityEstimate <= -1.5:
		recommendations = append(recommendations, "Ability is well below the scale midpoint; consolidate with difficulty 1-2 items before advancing")
	}

	if len(rep.StrengthPoints) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Strongest area: %s (%.0f%% mastery)", rep.StrengthPoints[0].KnowledgePointName, rep.StrengthPoints[0].MasteryScore))
	}

	return recommendations
}

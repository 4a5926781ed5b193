package selection

import (
	"context"
	"fmt"

	"diagnosis-service/internal/models"
)

// PoolManager pairs the question bank with the weighted selector and
// owns the relax-on-empty fallback.
type PoolManager struct {
	bank     QuestionBank
	selector *Selector
}

func NewPoolManager(bank QuestionBank) *PoolManager {
	return &PoolManager{
		bank:     bank,
		selector: NewSelector(),
	}
}

// NextQuestion picks the next item for a session. The target difficulty
// follows the current ability estimate, bounded by the session's
// configured difficulty range. An exhausted Result is a valid outcome,
// not an error.
func (pm *PoolManager) NextQuestion(ctx context.Context, session *models.DiagnosisSession) (*Result, error) {
	target := TargetDifficulty(session.CurrentAbilityEstimate)
	if session.Config.DifficultyMin > 0 && target < session.Config.DifficultyMin {
		target = session.Config.DifficultyMin
	}
	if session.Config.DifficultyMax > 0 && target > session.Config.DifficultyMax {
		target = session.Config.DifficultyMax
	}

	criteria := DefaultCriteria()
	criteria.SubjectID = session.SubjectID
	criteria.TargetDifficulty = target
	criteria.ExcludeIDs = session.UsedQuestionIDs
	criteria.CoveredKnowledgePoints = session.CoveredKnowledgePoints

	candidates, err := pm.bank.FetchCandidates(ctx, session.SubjectID, nil, target, session.UsedQuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	relaxed := false
	if len(candidates) == 0 {
		// Relax the difficulty filter before declaring the pool empty.
		// Relaxation widens past the target, never past the session's
		// configured difficulty range.
		candidates, err = pm.bank.FetchCandidates(ctx, session.SubjectID, nil, 0, session.UsedQuestionIDs)
		if err != nil {
			return nil, fmt.Errorf("fetch candidates: %w", err)
		}
		candidates = withinDifficultyRange(candidates, session.Config.DifficultyMin, session.Config.DifficultyMax)
		relaxed = true
	}

	result := pm.selector.Pick(candidates, criteria)
	result.Relaxed = relaxed
	return result, nil
}

// withinDifficultyRange keeps candidates inside the configured bounds.
// A zero bound leaves that side open.
func withinDifficultyRange(questions []models.Question, min, max int) []models.Question {
	if min == 0 && max == 0 {
		return questions
	}
	kept := make([]models.Question, 0, len(questions))
	for _, question := range questions {
		if min > 0 && question.Difficulty < min {
			continue
		}
		if max > 0 && question.Difficulty > max {
			continue
		}
		kept = append(kept, question)
	}
	return kept
}

// Distribution summarizes the remaining pool for a subject: unused item
// counts per difficulty and per knowledge point.
func (pm *PoolManager) Distribution(ctx context.Context, subjectID string, excludeIDs []string) (map[string]interface{}, error) {
	questions, err := pm.bank.FetchCandidates(ctx, subjectID, nil, 0, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	difficultyCount := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	perKnowledgePoint := map[string]int{}
	for _, question := range questions {
		difficultyCount[models.ClampDifficulty(question.Difficulty)]++
		if question.KnowledgePointID != "" {
			perKnowledgePoint[question.KnowledgePointID]++
		}
	}

	return map[string]interface{}{
		"total_questions":               len(questions),
		"difficulty_distribution":       difficultyCount,
		"questions_per_knowledge_point": perKnowledgePoint,
	}, nil
}

// ValidatePool checks whether a subject's pool can sustain a session of
// the given length.
func (pm *PoolManager) ValidatePool(ctx context.Context, subjectID string, required int) (bool, int, error) {
	questions, err := pm.bank.FetchCandidates(ctx, subjectID, nil, 0, nil)
	if err != nil {
		return false, 0, fmt.Errorf("fetch candidates: %w", err)
	}
	return len(questions) >= required, len(questions), nil
}

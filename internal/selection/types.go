package selection

import (
	"context"

	"diagnosis-service/internal/models"
)

// Criteria describes one next-item request.
type Criteria struct {
	SubjectID              string   `json:"subject_id"`
	TargetDifficulty       int      `json:"target_difficulty"`
	ExcludeIDs             []string `json:"exclude_ids"`
	CoveredKnowledgePoints []string `json:"covered_knowledge_points"`
	Count                  int      `json:"count"`
	WeightExponent         float64  `json:"weight_exponent"` // exponent for the proximity decay (default 2.0)
}

func DefaultCriteria() *Criteria {
	return &Criteria{
		Count:          1,
		WeightExponent: 2.0, // square the proximity decay for stronger preference
	}
}

// Candidate is a question with its computed selection weight.
type Candidate struct {
	Question       models.Question `json:"question"`
	Weight         float64         `json:"weight"`
	DifficultyGap  int             `json:"difficulty_gap"`
	CoversNewPoint bool            `json:"covers_new_point"`
}

// Result carries the picked items. An empty Questions slice means the
// pool is exhausted; callers treat that as a forced stop, not an error.
type Result struct {
	Questions        []models.Question `json:"questions"`
	TotalCandidates  int               `json:"total_candidates"`
	TargetDifficulty int               `json:"target_difficulty"`
	Relaxed          bool              `json:"relaxed"`
}

func (r *Result) Exhausted() bool {
	return len(r.Questions) == 0
}

// QuestionBank is the slice of the question store the selector needs.
// Difficulty zero means any difficulty; exclude ids are items already
// served. An empty candidate list is a valid answer.
type QuestionBank interface {
	FetchCandidates(ctx context.Context, subjectID string, knowledgePointIDs []string, difficulty int, excludeIDs []string) ([]models.Question, error)
}

package models

import (
	"fmt"
	"time"
)

const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in_progress"
	ReportStatusCompleted  = "completed"
)

const (
	StrategyFoundationBuilding = "foundation_building"
	StrategySkillDevelopment   = "skill_development"
	StrategyMasteryRefinement  = "mastery_refinement"
)

type ReportConfig struct {
	QuestionCount    int  `bson:"question_count" json:"question_count"`
	TimeLimitSeconds int  `bson:"time_limit_seconds" json:"time_limit_seconds"`
	DifficultyMin    int  `bson:"difficulty_min" json:"difficulty_min"`
	DifficultyMax    int  `bson:"difficulty_max" json:"difficulty_max"`
	AdaptiveEnabled  bool `bson:"adaptive_enabled" json:"adaptive_enabled"`
}

func (c *ReportConfig) Validate() error {
	if c.QuestionCount < 1 {
		return fmt.Errorf("%w: question_count must be at least 1", ErrInvalidConfig)
	}
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("%w: time_limit_seconds must not be negative", ErrInvalidConfig)
	}
	if c.DifficultyMin < DifficultyMin || c.DifficultyMax > DifficultyMax || c.DifficultyMin > c.DifficultyMax {
		return fmt.Errorf("%w: difficulty range %d..%d invalid", ErrInvalidConfig, c.DifficultyMin, c.DifficultyMax)
	}
	return nil
}

type KnowledgePointMastery struct {
	KnowledgePointID   string         `bson:"knowledge_point_id" json:"knowledge_point_id"`
	KnowledgePointName string         `bson:"knowledge_point_name" json:"knowledge_point_name"`
	MasteryScore       float64        `bson:"mastery_score" json:"mastery_score"`
	TotalResponses     int            `bson:"total_responses" json:"total_responses"`
	CorrectResponses   int            `bson:"correct_responses" json:"correct_responses"`
	AccuracyRate       float64        `bson:"accuracy_rate" json:"accuracy_rate"`
	AverageDifficulty  float64        `bson:"average_difficulty" json:"average_difficulty"`
	TimeSpentSeconds   int            `bson:"time_spent_seconds" json:"time_spent_seconds"`
	ErrorTypes         map[string]int `bson:"error_types" json:"error_types"`
}

// HeatmapData holds parallel arrays; index i of every slice describes
// the same knowledge point.
type HeatmapData struct {
	KnowledgePoints     []string  `bson:"knowledge_points" json:"knowledge_points"`
	MasteryScores       []float64 `bson:"mastery_scores" json:"mastery_scores"`
	AverageDifficulties []float64 `bson:"average_difficulties" json:"average_difficulties"`
	TimeSpentSeconds    []int     `bson:"time_spent_seconds" json:"time_spent_seconds"`
	ErrorRates          []float64 `bson:"error_rates" json:"error_rates"`
}

type StrengthPoint struct {
	KnowledgePointID   string  `bson:"knowledge_point_id" json:"knowledge_point_id"`
	KnowledgePointName string  `bson:"knowledge_point_name" json:"knowledge_point_name"`
	MasteryScore       float64 `bson:"mastery_score" json:"mastery_score"`
	AccuracyRate       float64 `bson:"accuracy_rate" json:"accuracy_rate"`
}

type LearningPathStep struct {
	Sequence           int      `bson:"sequence" json:"sequence"`
	KnowledgePointID   string   `bson:"knowledge_point_id" json:"knowledge_point_id"`
	KnowledgePointName string   `bson:"knowledge_point_name" json:"knowledge_point_name"`
	CurrentMastery     float64  `bson:"current_mastery" json:"current_mastery"`
	TargetMastery      float64  `bson:"target_mastery" json:"target_mastery"`
	EstimatedHours     float64  `bson:"estimated_hours" json:"estimated_hours"`
	Strategy           string   `bson:"strategy" json:"strategy"`
	Prerequisites      []string `bson:"prerequisites" json:"prerequisites"`
}

type DiagnosisReport struct {
	ID                   string                           `bson:"_id,omitempty" json:"id"`
	UserID               string                           `bson:"user_id" json:"user_id"`
	SubjectID            string                           `bson:"subject_id" json:"subject_id"`
	Status               string                           `bson:"status" json:"status"`
	Config               ReportConfig                     `bson:"config" json:"config"`
	OverallScore         float64                          `bson:"overall_score" json:"overall_score"`
	AccuracyRate         float64                          `bson:"accuracy_rate" json:"accuracy_rate"`
	AbilityEstimate      float64                          `bson:"ability_estimate" json:"ability_estimate"`
	AbilityStandardError float64                          `bson:"ability_standard_error" json:"ability_standard_error"`
	ConfidenceInterval   [2]float64                       `bson:"confidence_interval" json:"confidence_interval"`
	MasteryLevels        map[string]KnowledgePointMastery `bson:"mastery_levels" json:"mastery_levels"`
	Heatmap              HeatmapData                      `bson:"heatmap" json:"heatmap"`
	WeaknessPoints       []WeaknessPoint                  `bson:"weakness_points" json:"weakness_points"`
	StrengthPoints       []StrengthPoint                  `bson:"strength_points" json:"strength_points"`
	LearningPath         []LearningPathStep               `bson:"learning_path" json:"learning_path"`
	Recommendations      []string                         `bson:"recommendations" json:"recommendations"`
	CreatedAt            time.Time                        `bson:"created_at" json:"created_at"`
	CompletedAt          time.Time                        `bson:"completed_at" json:"completed_at"`
}

func (r *DiagnosisReport) IsCompleted() bool {
	return r.Status == ReportStatusCompleted
}

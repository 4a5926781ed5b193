package models

import (
	"fmt"
	"time"
)

// Ability estimates live on a fixed logit-like scale.
const (
	AbilityMin = -3.0
	AbilityMax = 3.0
)

const (
	SessionStatusPending    = "pending"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusCancelled  = "cancelled"
)

// Diagnostic levels describe what a session probes, not how items are
// chosen; selection depends only on the ability estimate.
const (
	LevelMemory      = "memory"
	LevelApplication = "application"
	LevelTransfer    = "transfer"
)

const (
	CompletionAdaptiveStop  = "adaptive_stop"
	CompletionMaxQuestions  = "max_questions"
	CompletionPoolExhausted = "pool_exhausted"
	CompletionManual        = "manual"
)

type SessionConfig struct {
	MinQuestions    int     `bson:"min_questions" json:"min_questions"`
	MaxQuestions    int     `bson:"max_questions" json:"max_questions"`
	TargetPrecision float64 `bson:"target_precision" json:"target_precision"`
	InitialAbility  float64 `bson:"initial_ability" json:"initial_ability"`
	DifficultyMin   int     `bson:"difficulty_min" json:"difficulty_min"`
	DifficultyMax   int     `bson:"difficulty_max" json:"difficulty_max"`
}

func (c *SessionConfig) Validate() error {
	if c.MinQuestions < 1 {
		return fmt.Errorf("%w: min_questions must be at least 1", ErrInvalidConfig)
	}
	if c.MaxQuestions < c.MinQuestions {
		return fmt.Errorf("%w: max_questions %d below min_questions %d", ErrInvalidConfig, c.MaxQuestions, c.MinQuestions)
	}
	if c.TargetPrecision <= 0 {
		return fmt.Errorf("%w: target_precision must be positive", ErrInvalidConfig)
	}
	if c.InitialAbility < AbilityMin || c.InitialAbility > AbilityMax {
		return fmt.Errorf("%w: initial_ability %.2f outside [%.1f, %.1f]", ErrInvalidConfig, c.InitialAbility, AbilityMin, AbilityMax)
	}
	if c.DifficultyMin < DifficultyMin || c.DifficultyMax > DifficultyMax || c.DifficultyMin > c.DifficultyMax {
		return fmt.Errorf("%w: difficulty range %d..%d invalid", ErrInvalidConfig, c.DifficultyMin, c.DifficultyMax)
	}
	return nil
}

func ValidLevel(level string) bool {
	switch level {
	case LevelMemory, LevelApplication, LevelTransfer:
		return true
	}
	return false
}

// AbilityObservation records one estimate transition in the order
// answers were processed.
type AbilityObservation struct {
	QuestionIndex    int       `bson:"question_index" json:"question_index"`
	PreviousEstimate float64   `bson:"previous_estimate" json:"previous_estimate"`
	NewEstimate      float64   `bson:"new_estimate" json:"new_estimate"`
	Correct          bool      `bson:"correct" json:"correct"`
	Difficulty       int       `bson:"difficulty" json:"difficulty"`
	RecordedAt       time.Time `bson:"recorded_at" json:"recorded_at"`
}

type DiagnosisSession struct {
	ID                     string               `bson:"_id,omitempty" json:"id"`
	ReportID               string               `bson:"report_id" json:"report_id"`
	UserID                 string               `bson:"user_id" json:"user_id"`
	SubjectID              string               `bson:"subject_id" json:"subject_id"`
	Level                  string               `bson:"level" json:"level"`
	SessionToken           string               `bson:"session_token" json:"session_token"`
	Status                 string               `bson:"status" json:"status"`
	Config                 SessionConfig        `bson:"config" json:"config"`
	CurrentAbilityEstimate float64              `bson:"current_ability_estimate" json:"current_ability_estimate"`
	AbilityStandardError   float64              `bson:"ability_standard_error" json:"ability_standard_error"`
	QuestionsAnswered      int                  `bson:"questions_answered" json:"questions_answered"`
	CorrectAnswers         int                  `bson:"correct_answers" json:"correct_answers"`
	CurrentQuestionIndex   int                  `bson:"current_question_index" json:"current_question_index"`
	AbilityProgression     []AbilityObservation `bson:"ability_progression" json:"ability_progression"`
	UsedQuestionIDs        []string             `bson:"used_question_ids" json:"used_question_ids"`
	CoveredKnowledgePoints []string             `bson:"covered_knowledge_points" json:"covered_knowledge_points"`
	AccuracyRate           float64              `bson:"accuracy_rate" json:"accuracy_rate"`
	CompletionType         string               `bson:"completion_type" json:"completion_type"`
	StartedAt              time.Time            `bson:"started_at" json:"started_at"`
	EndedAt                time.Time            `bson:"ended_at" json:"ended_at"`
	CreatedAt              time.Time            `bson:"created_at" json:"created_at"`
}

func (s *DiagnosisSession) IsActive() bool {
	return s.Status == SessionStatusInProgress
}

// Finished reports whether the session reached a terminal status.
func (s *DiagnosisSession) Finished() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}

// HasCovered reports whether a knowledge point already received at
// least one item in this session.
func (s *DiagnosisSession) HasCovered(knowledgePointID string) bool {
	for _, id := range s.CoveredKnowledgePoints {
		if id == knowledgePointID {
			return true
		}
	}
	return false
}

package models

import (
	"fmt"
	"time"
)

// Error type tags a learner or client may attach to a wrong answer.
const (
	ErrorTypeCareless      = "careless"
	ErrorTypeSpeedRush     = "speed_rush"
	ErrorTypeMisconception = "misconception"
)

const (
	ConfidenceMin = 1
	ConfidenceMax = 5
)

type QuestionResponse struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	ReportID         string    `bson:"report_id" json:"report_id"`
	SessionID        string    `bson:"session_id" json:"session_id"`
	QuestionID       string    `bson:"question_id" json:"question_id"`
	QuestionContent  string    `bson:"question_content,omitempty" json:"question_content,omitempty"`
	KnowledgePointID string    `bson:"knowledge_point_id" json:"knowledge_point_id"`
	QuestionIndex    int       `bson:"question_index" json:"question_index"`
	UserAnswer       string    `bson:"user_answer" json:"user_answer"`
	Correct          bool      `bson:"correct" json:"correct"`
	Difficulty       int       `bson:"difficulty" json:"difficulty"`
	TimeSpentSeconds int       `bson:"time_spent_seconds" json:"time_spent_seconds"`
	Confidence       int       `bson:"confidence,omitempty" json:"confidence,omitempty"`
	ErrorType        string    `bson:"error_type,omitempty" json:"error_type,omitempty"`
	AnsweredAt       time.Time `bson:"answered_at" json:"answered_at"`
}

func ValidErrorType(errorType string) bool {
	switch errorType {
	case "", ErrorTypeCareless, ErrorTypeSpeedRush, ErrorTypeMisconception:
		return true
	}
	return false
}

// Validate checks the tagged record at the service boundary. Confidence
// zero means the tag was omitted.
func (r *QuestionResponse) Validate() error {
	if r.QuestionID == "" {
		return fmt.Errorf("%w: response question_id is required", ErrInvalidConfig)
	}
	if r.KnowledgePointID == "" {
		return fmt.Errorf("%w: response knowledge_point_id is required", ErrInvalidConfig)
	}
	if r.Difficulty < DifficultyMin || r.Difficulty > DifficultyMax {
		return fmt.Errorf("%w: response difficulty %d outside %d..%d", ErrInvalidConfig, r.Difficulty, DifficultyMin, DifficultyMax)
	}
	if r.TimeSpentSeconds < 0 {
		return fmt.Errorf("%w: time_spent_seconds must not be negative", ErrInvalidConfig)
	}
	if r.Confidence != 0 && (r.Confidence < ConfidenceMin || r.Confidence > ConfidenceMax) {
		return fmt.Errorf("%w: confidence %d outside %d..%d", ErrInvalidConfig, r.Confidence, ConfidenceMin, ConfidenceMax)
	}
	if !ValidErrorType(r.ErrorType) {
		return fmt.Errorf("%w: unknown error_type %q", ErrInvalidConfig, r.ErrorType)
	}
	return nil
}

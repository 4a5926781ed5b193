package models

import (
	"fmt"
	"time"
)

const (
	DifficultyMin = 1
	DifficultyMax = 5
)

const (
	QuestionStatusActive  = "active"
	QuestionStatusDeleted = "deleted"
)

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type Question struct {
	ID                   string    `bson:"_id,omitempty" json:"id"`
	SubjectID            string    `bson:"subject_id" json:"subject_id"`
	KnowledgePointID     string    `bson:"knowledge_point_id" json:"knowledge_point_id"`
	Content              string    `bson:"content" json:"content"`
	Type                 string    `bson:"type" json:"type"`
	Options              []Option  `bson:"options" json:"options"`
	CorrectAnswer        string    `bson:"correct_answer" json:"correct_answer"`
	Explanation          string    `bson:"explanation" json:"explanation"`
	Difficulty           int       `bson:"difficulty" json:"difficulty"`
	EstimatedTimeSeconds int       `bson:"estimated_time_seconds" json:"estimated_time_seconds"`
	Status               string    `bson:"status" json:"status"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
}

// ClampDifficulty forces a difficulty rating onto the 1..5 scale.
func ClampDifficulty(d int) int {
	if d < DifficultyMin {
		return DifficultyMin
	}
	if d > DifficultyMax {
		return DifficultyMax
	}
	return d
}

func (q *Question) Validate() error {
	if q.SubjectID == "" {
		return fmt.Errorf("%w: question subject_id is required", ErrInvalidConfig)
	}
	if q.KnowledgePointID == "" {
		return fmt.Errorf("%w: question knowledge_point_id is required", ErrInvalidConfig)
	}
	if q.Content == "" {
		return fmt.Errorf("%w: question content is required", ErrInvalidConfig)
	}
	if q.Difficulty < DifficultyMin || q.Difficulty > DifficultyMax {
		return fmt.Errorf("%w: question difficulty %d outside %d..%d", ErrInvalidConfig, q.Difficulty, DifficultyMin, DifficultyMax)
	}
	return nil
}

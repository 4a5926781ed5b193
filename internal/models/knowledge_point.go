package models

import "time"

// DefaultPriority is assumed for knowledge points that carry no
// explicit priority rating.
const DefaultPriority = 3

type KnowledgePoint struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	SubjectID     string    `bson:"subject_id" json:"subject_id"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description" json:"description"`
	Prerequisites []string  `bson:"prerequisites" json:"prerequisites"`
	Priority      int       `bson:"priority" json:"priority"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// PriorityOrDefault returns the rating on the 1..5 scale, falling back
// to DefaultPriority when the stored value is missing or out of range.
func (kp *KnowledgePoint) PriorityOrDefault() int {
	if kp.Priority < 1 || kp.Priority > 5 {
		return DefaultPriority
	}
	return kp.Priority
}

package models

import "time"

// WeaknessPoint is a per-report diagnosis artifact; rows are replaced
// wholesale on every synthesis run and removed with their report.
type WeaknessPoint struct {
	ID                 string         `bson:"_id,omitempty" json:"id"`
	ReportID           string         `bson:"report_id" json:"report_id"`
	KnowledgePointID   string         `bson:"knowledge_point_id" json:"knowledge_point_id"`
	KnowledgePointName string         `bson:"knowledge_point_name" json:"knowledge_point_name"`
	MasteryScore       float64        `bson:"mastery_score" json:"mastery_score"`
	AccuracyRate       float64        `bson:"accuracy_rate" json:"accuracy_rate"`
	WeaknessLevel      int            `bson:"weakness_level" json:"weakness_level"`
	Priority           int            `bson:"priority" json:"priority"`
	ErrorTypes         map[string]int `bson:"error_types" json:"error_types"`
	ImprovementHours   float64        `bson:"improvement_hours" json:"improvement_hours"`
	CreatedAt          time.Time      `bson:"created_at" json:"created_at"`
}

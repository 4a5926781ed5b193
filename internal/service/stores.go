package service

import (
	"context"

	"diagnosis-service/internal/models"
	"diagnosis-service/internal/selection"
)

// Narrow persistence contracts, satisfied by the Mongo repositories in
// production and by in-memory fakes in tests. Every store is assumed to
// fail atomically per call.

type ReportStore interface {
	FindByID(ctx context.Context, id string) (*models.DiagnosisReport, error)
	FindByUser(ctx context.Context, userID string) ([]models.DiagnosisReport, error)
	Save(ctx context.Context, report *models.DiagnosisReport) error
	Delete(ctx context.Context, id string) error
}

type SessionStore interface {
	FindByID(ctx context.Context, id string) (*models.DiagnosisSession, error)
	FindByToken(ctx context.Context, token string) (*models.DiagnosisSession, error)
	FindByReport(ctx context.Context, reportID string) ([]models.DiagnosisSession, error)
	Save(ctx context.Context, session *models.DiagnosisSession) error
	DeleteByReport(ctx context.Context, reportID string) error
}

type ResponseStore interface {
	Append(ctx context.Context, response *models.QuestionResponse) error
	FindBySession(ctx context.Context, sessionID string) ([]models.QuestionResponse, error)
	FindByReport(ctx context.Context, reportID string) ([]models.QuestionResponse, error)
	DeleteByReport(ctx context.Context, reportID string) error
}

type WeaknessStore interface {
	ReplaceForReport(ctx context.Context, reportID string, points []models.WeaknessPoint) error
	FindByReport(ctx context.Context, reportID string) ([]models.WeaknessPoint, error)
	DeleteByReport(ctx context.Context, reportID string) error
}

// KnowledgeBase reads the shared knowledge point collection.
type KnowledgeBase interface {
	FindBySubject(ctx context.Context, subjectID string) ([]models.KnowledgePoint, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.KnowledgePoint, error)
}

// QuestionSource is the slice of the question bank the diagnosis flow
// needs: direct lookup for answer grading plus candidate fetch for
// selection.
type QuestionSource interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	selection.QuestionBank
}

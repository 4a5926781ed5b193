package service

import (
	"context"
	"fmt"
	"sort"

	"diagnosis-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// In-memory stores backing the service tests. They hand out copies the
// way the Mongo repositories decode fresh documents.

type memReports struct {
	byID map[string]models.DiagnosisReport
	seq  int
}

func newMemReports() *memReports {
	return &memReports{byID: map[string]models.DiagnosisReport{}}
}

func (m *memReports) FindByID(_ context.Context, id string) (*models.DiagnosisReport, error) {
	rep, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &rep, nil
}

func (m *memReports) FindByUser(_ context.Context, userID string) ([]models.DiagnosisReport, error) {
	var out []models.DiagnosisReport
	for _, rep := range m.byID {
		if rep.UserID == userID {
			out = append(out, rep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memReports) Save(_ context.Context, rep *models.DiagnosisReport) error {
	if rep.ID == "" {
		m.seq++
		rep.ID = fmt.Sprintf("report-%d", m.seq)
	}
	m.byID[rep.ID] = *rep
	return nil
}

func (m *memReports) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memSessions struct {
	byID map[string]models.DiagnosisSession
	seq  int
}

func newMemSessions() *memSessions {
	return &memSessions{byID: map[string]models.DiagnosisSession{}}
}

func (m *memSessions) FindByID(_ context.Context, id string) (*models.DiagnosisSession, error) {
	session, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &session, nil
}

func (m *memSessions) FindByToken(_ context.Context, token string) (*models.DiagnosisSession, error) {
	for _, session := range m.byID {
		if session.SessionToken == token {
			s := session
			return &s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memSessions) FindByReport(_ context.Context, reportID string) ([]models.DiagnosisSession, error) {
	var out []models.DiagnosisSession
	for _, session := range m.byID {
		if session.ReportID == reportID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSessions) Save(_ context.Context, session *models.DiagnosisSession) error {
	if session.ID == "" {
		m.seq++
		session.ID = fmt.Sprintf("session-%d", m.seq)
	}
	m.byID[session.ID] = *session
	return nil
}

func (m *memSessions) DeleteByReport(_ context.Context, reportID string) error {
	for id, session := range m.byID {
		if session.ReportID == reportID {
			delete(m.byID, id)
		}
	}
	return nil
}

type memResponses struct {
	rows []models.QuestionResponse
	seq  int
}

func (m *memResponses) Append(_ context.Context, response *models.QuestionResponse) error {
	m.seq++
	response.ID = fmt.Sprintf("response-%d", m.seq)
	m.rows = append(m.rows, *response)
	return nil
}

func (m *memResponses) FindBySession(_ context.Context, sessionID string) ([]models.QuestionResponse, error) {
	var out []models.QuestionResponse
	for _, row := range m.rows {
		if row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

func (m *memResponses) FindByReport(_ context.Context, reportID string) ([]models.QuestionResponse, error) {
	var out []models.QuestionResponse
	for _, row := range m.rows {
		if row.ReportID == reportID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memResponses) DeleteByReport(_ context.Context, reportID string) error {
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.ReportID != reportID {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

type memWeaknesses struct {
	byReport map[string][]models.WeaknessPoint
}

func newMemWeaknesses() *memWeaknesses {
	return &memWeaknesses{byReport: map[string][]models.WeaknessPoint{}}
}

func (m *memWeaknesses) ReplaceForReport(_ context.Context, reportID string, points []models.WeaknessPoint) error {
	m.byReport[reportID] = append([]models.WeaknessPoint{}, points...)
	return nil
}

func (m *memWeaknesses) FindByReport(_ context.Context, reportID string) ([]models.WeaknessPoint, error) {
	return append([]models.WeaknessPoint{}, m.byReport[reportID]...), nil
}

func (m *memWeaknesses) DeleteByReport(_ context.Context, reportID string) error {
	delete(m.byReport, reportID)
	return nil
}

type memKnowledge struct {
	points []models.KnowledgePoint
}

func (m *memKnowledge) FindBySubject(_ context.Context, subjectID string) ([]models.KnowledgePoint, error) {
	var out []models.KnowledgePoint
	for _, point := range m.points {
		if point.SubjectID == subjectID {
			out = append(out, point)
		}
	}
	return out, nil
}

func (m *memKnowledge) FindByIDs(_ context.Context, ids []string) ([]models.KnowledgePoint, error) {
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.KnowledgePoint
	for _, point := range m.points {
		if wanted[point.ID] {
			out = append(out, point)
		}
	}
	return out, nil
}

// memBank implements both the diagnosis-side QuestionSource and the
// admin-side QuestionStore.
type memBank struct {
	byID map[string]models.Question
	seq  int
}

func newMemBank() *memBank {
	return &memBank{byID: map[string]models.Question{}}
}

func (m *memBank) Create(_ context.Context, question *models.Question) error {
	if question.ID == "" {
		m.seq++
		question.ID = fmt.Sprintf("question-%d", m.seq)
	}
	m.byID[question.ID] = *question
	return nil
}

func (m *memBank) CreateMany(ctx context.Context, questions []models.Question) (int, error) {
	for i := range questions {
		if err := m.Create(ctx, &questions[i]); err != nil {
			return i, err
		}
	}
	return len(questions), nil
}

func (m *memBank) FindByID(_ context.Context, id string) (*models.Question, error) {
	question, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &question, nil
}

func (m *memBank) Update(_ context.Context, id string, update bson.M) error {
	question, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	for key, value := range update {
		switch key {
		case "knowledge_point_id":
			question.KnowledgePointID = value.(string)
		case "content":
			question.Content = value.(string)
		case "type":
			question.Type = value.(string)
		case "options":
			question.Options = value.([]models.Option)
		case "correct_answer":
			question.CorrectAnswer = value.(string)
		case "explanation":
			question.Explanation = value.(string)
		case "difficulty":
			question.Difficulty = value.(int)
		case "estimated_time_seconds":
			question.EstimatedTimeSeconds = value.(int)
		case "status":
			question.Status = value.(string)
		}
	}
	m.byID[id] = question
	return nil
}

func (m *memBank) Delete(_ context.Context, id string) error {
	question, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	question.Status = models.QuestionStatusDeleted
	m.byID[id] = question
	return nil
}

func (m *memBank) FetchCandidates(_ context.Context, subjectID string, knowledgePointIDs []string, difficulty int, excludeIDs []string) ([]models.Question, error) {
	excluded := map[string]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	wantedPoints := map[string]bool{}
	for _, id := range knowledgePointIDs {
		wantedPoints[id] = true
	}

	ids := make([]string, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []models.Question
	for _, id := range ids {
		question := m.byID[id]
		if question.SubjectID != subjectID || question.Status == models.QuestionStatusDeleted {
			continue
		}
		if difficulty > 0 && question.Difficulty != difficulty {
			continue
		}
		if len(wantedPoints) > 0 && !wantedPoints[question.KnowledgePointID] {
			continue
		}
		if excluded[question.ID] {
			continue
		}
		out = append(out, question)
	}
	return out, nil
}

func newTestService() (*DiagnosisService, *memBank, *memReports, *memSessions, *memResponses, *memWeaknesses, *memKnowledge) {
	bank := newMemBank()
	reports := newMemReports()
	sessions := newMemSessions()
	responses := &memResponses{}
	weaknesses := newMemWeaknesses()
	knowledge := &memKnowledge{}
	svc := NewDiagnosisService(reports, sessions, responses, weaknesses, bank, knowledge, nil, nil)
	return svc, bank, reports, sessions, responses, weaknesses, knowledge
}

func seedQuestion(bank *memBank, subjectID, knowledgePointID string, difficulty int, correctAnswer string) models.Question {
	question := models.Question{
		SubjectID:        subjectID,
		KnowledgePointID: knowledgePointID,
		Content:          fmt.Sprintf("item %s d%d", knowledgePointID, difficulty),
		Type:             "single_choice",
		CorrectAnswer:    correctAnswer,
		Difficulty:       difficulty,
		Status:           models.QuestionStatusActive,
	}
	_ = bank.Create(context.Background(), &question)
	return question
}

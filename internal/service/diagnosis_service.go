package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"diagnosis-service/internal/adaptive"
	"diagnosis-service/internal/event"
	"diagnosis-service/internal/models"
	"diagnosis-service/internal/pattern"
	"diagnosis-service/internal/report"
	"diagnosis-service/internal/selection"
)

// DiagnosisService runs the estimation, selection, stopping and
// synthesis pipeline over persisted reports and sessions. State-mutating
// calls against the same session are serialized through a per-session
// mutex; different sessions never contend.
type DiagnosisService struct {
	Reports    ReportStore
	Sessions   SessionStore
	Responses  ResponseStore
	Weaknesses WeaknessStore
	Questions  QuestionSource
	Knowledge  KnowledgeBase

	engine      *adaptive.Engine
	pool        *selection.PoolManager
	synthesizer *report.Synthesizer
	analyzer    *pattern.Analyzer
	publisher   *event.EventPublisher

	sessionLocks sync.Map
}

func NewDiagnosisService(
	reports ReportStore,
	sessions SessionStore,
	responses ResponseStore,
	weaknesses WeaknessStore,
	questions QuestionSource,
	knowledge KnowledgeBase,
	publisher *event.EventPublisher,
	config *adaptive.Config,
) *DiagnosisService {
	return &DiagnosisService{
		Reports:     reports,
		Sessions:    sessions,
		Responses:   responses,
		Weaknesses:  weaknesses,
		Questions:   questions,
		Knowledge:   knowledge,
		engine:      adaptive.NewEngine(config),
		pool:        selection.NewPoolManager(questions),
		synthesizer: report.NewSynthesizer(nil),
		analyzer:    pattern.NewAnalyzer(),
		publisher:   publisher,
	}
}

// NextItemResult is the answer to a next-question request. Finished
// means the session reached a terminal state instead of serving an item.
type NextItemResult struct {
	Finished         bool             `json:"finished"`
	CompletionType   string           `json:"completion_type,omitempty"`
	Question         *models.Question `json:"question,omitempty"`
	TargetDifficulty int              `json:"target_difficulty,omitempty"`
	AbilityEstimate  float64          `json:"ability_estimate"`
	StandardError    float64          `json:"standard_error"`
}

// AnswerInput is the tagged answer record accepted at the boundary.
// Correct nil means the service grades the user answer against the bank.
type AnswerInput struct {
	QuestionID       string
	UserAnswer       string
	Correct          *bool
	TimeSpentSeconds int
	Confidence       int
	ErrorType        string
}

type AnswerOutcome struct {
	Recorded          bool    `json:"recorded"`
	Correct           bool    `json:"correct"`
	ShouldContinue    bool    `json:"should_continue"`
	AbilityEstimate   float64 `json:"ability_estimate"`
	StandardError     float64 `json:"standard_error"`
	QuestionsAnswered int     `json:"questions_answered"`
	CompletionType    string  `json:"completion_type,omitempty"`
}

func (s *DiagnosisService) CreateReport(ctx context.Context, userID, subjectID string, config models.ReportConfig) (*models.DiagnosisReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", models.ErrInvalidConfig)
	}
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject_id is required", models.ErrInvalidConfig)
	}
	applyReportDefaults(&config)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	rep := &models.DiagnosisReport{
		UserID:    userID,
		SubjectID: subjectID,
		Status:    models.ReportStatusPending,
		Config:    config,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Reports.Save(ctx, rep); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.publish(event.ReportCreated, map[string]interface{}{
		"report_id":  rep.ID,
		"user_id":    rep.UserID,
		"subject_id": rep.SubjectID,
	})
	return rep, nil
}

// StartSession opens one adaptive run under a report. Difficulty bounds
// and planned length fall back to the report config, then to engine
// defaults; an explicit min above an explicit max is rejected before
// any defaulting.
func (s *DiagnosisService) StartSession(ctx context.Context, reportID, level string, config models.SessionConfig) (*models.DiagnosisSession, error) {
	rep, err := s.Reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rep.IsCompleted() {
		return nil, fmt.Errorf("start session: %w: report %s already completed", models.ErrInvalidTransition, reportID)
	}
	if !models.ValidLevel(level) {
		return nil, fmt.Errorf("%w: unknown level %q", models.ErrInvalidConfig, level)
	}
	if config.MinQuestions > 0 && config.MaxQuestions > 0 && config.MinQuestions > config.MaxQuestions {
		return nil, fmt.Errorf("%w: max_questions %d below min_questions %d", models.ErrInvalidConfig, config.MaxQuestions, config.MinQuestions)
	}

	if config.MaxQuestions == 0 && rep.Config.QuestionCount > 0 {
		config.MaxQuestions = rep.Config.QuestionCount
	}
	if !rep.Config.AdaptiveEnabled {
		// Fixed-length run: the stopping rule never fires early
		length := rep.Config.QuestionCount
		if config.MaxQuestions > 0 {
			length = config.MaxQuestions
		}
		config.MinQuestions = length
		config.MaxQuestions = length
	}
	if config.DifficultyMin == 0 {
		config.DifficultyMin = rep.Config.DifficultyMin
	}
	if config.DifficultyMax == 0 {
		config.DifficultyMax = rep.Config.DifficultyMax
	}

	session := s.engine.NewSession(reportID, rep.UserID, rep.SubjectID, level, config)
	if session.Config.MinQuestions > session.Config.MaxQuestions {
		// A short report plan caps the engine's default minimum.
		session.Config.MinQuestions = session.Config.MaxQuestions
	}
	if err := session.Config.Validate(); err != nil {
		return nil, err
	}
	if err := s.engine.Start(session); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if rep.Status == models.ReportStatusPending {
		rep.Status = models.ReportStatusInProgress
		if err := s.Reports.Save(ctx, rep); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}

	s.publish(event.SessionStarted, map[string]interface{}{
		"session_id":    session.ID,
		"report_id":     session.ReportID,
		"level":         session.Level,
		"session_token": session.SessionToken,
	})
	return session, nil
}

// NextItem evaluates the stopping rule and, when the session continues,
// serves one selected question with its answer fields stripped. An
// exhausted pool force-ends the session instead of erroring.
func (s *DiagnosisService) NextItem(ctx context.Context, sessionID string) (*NextItemResult, error) {
	defer s.lockSession(sessionID)()

	session, err := s.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Finished() {
		return s.finishedResult(session), nil
	}
	if !session.IsActive() {
		return nil, fmt.Errorf("next item: %w: session is %q", models.ErrInvalidTransition, session.Status)
	}

	if !s.engine.ShouldContinue(session) {
		return s.endSession(ctx, session, s.engine.StopReason(session))
	}

	picked, err := s.pool.NextQuestion(ctx, session)
	if err != nil {
		return nil, err
	}
	if picked.Exhausted() {
		return s.endSession(ctx, session, models.CompletionPoolExhausted)
	}

	question := picked.Questions[0]
	if err := s.engine.MarkServed(session, &question); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	served := question
	served.CorrectAnswer = ""
	served.Explanation = ""
	return &NextItemResult{
		Question:         &served,
		TargetDifficulty: picked.TargetDifficulty,
		AbilityEstimate:  session.CurrentAbilityEstimate,
		StandardError:    session.AbilityStandardError,
	}, nil
}

// SubmitAnswer validates the tagged record, applies it to the running
// estimate, persists the response and the updated session, and ends the
// session when the stopping rule says enough evidence is in.
func (s *DiagnosisService) SubmitAnswer(ctx context.Context, sessionID string, input AnswerInput) (*AnswerOutcome, error) {
	defer s.lockSession(sessionID)()

	session, err := s.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	question, err := s.Questions.FindByID(ctx, input.QuestionID)
	if err != nil {
		return nil, err
	}

	correct := s.grade(question, input)
	response := &models.QuestionResponse{
		ReportID:         session.ReportID,
		SessionID:        session.ID,
		QuestionID:       question.ID,
		QuestionContent:  question.Content,
		KnowledgePointID: question.KnowledgePointID,
		QuestionIndex:    session.CurrentQuestionIndex,
		UserAnswer:       input.UserAnswer,
		Correct:          correct,
		Difficulty:       question.Difficulty,
		TimeSpentSeconds: input.TimeSpentSeconds,
		Confidence:       input.Confidence,
		ErrorType:        input.ErrorType,
		AnsweredAt:       time.Now().UTC(),
	}
	if err := response.Validate(); err != nil {
		return nil, err
	}

	if err := s.engine.MarkServed(session, question); err != nil {
		return nil, err
	}
	if err := s.engine.RecordAnswer(session, correct, question.Difficulty); err != nil {
		return nil, err
	}

	shouldContinue := s.engine.ShouldContinue(session)
	if !shouldContinue {
		if err := s.engine.End(session, s.engine.StopReason(session)); err != nil {
			return nil, err
		}
	}

	// The response is durable before the session state that counts it.
	if err := s.Responses.Append(ctx, response); err != nil {
		return nil, fmt.Errorf("append response: %w", err)
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.publish(event.AnswerSubmitted, map[string]interface{}{
		"session_id":     session.ID,
		"question_id":    question.ID,
		"correct":        correct,
		"question_index": response.QuestionIndex,
	})
	if !shouldContinue {
		s.publish(event.SessionCompleted, map[string]interface{}{
			"session_id":      session.ID,
			"report_id":       session.ReportID,
			"completion_type": session.CompletionType,
		})
	}

	return &AnswerOutcome{
		Recorded:          true,
		Correct:           correct,
		ShouldContinue:    shouldContinue,
		AbilityEstimate:   session.CurrentAbilityEstimate,
		StandardError:     session.AbilityStandardError,
		QuestionsAnswered: session.QuestionsAnswered,
		CompletionType:    session.CompletionType,
	}, nil
}

func (s *DiagnosisService) CancelSession(ctx context.Context, sessionID string) (*models.DiagnosisSession, error) {
	defer s.lockSession(sessionID)()

	session, err := s.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Cancel(session); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.publish(event.SessionCancelled, map[string]interface{}{
		"session_id": session.ID,
		"report_id":  session.ReportID,
	})
	return session, nil
}

// CompleteReport synthesizes the final report once every session under
// it is finished and at least one completed. Re-running on the same
// responses rebuilds identical artifacts.
func (s *DiagnosisService) CompleteReport(ctx context.Context, reportID string) (*models.DiagnosisReport, error) {
	rep, err := s.Reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.Sessions.FindByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	completed := 0
	for i := range sessions {
		if !sessions[i].Finished() {
			return nil, fmt.Errorf("complete report: %w: session %s is %q", models.ErrInvalidTransition, sessions[i].ID, sessions[i].Status)
		}
		if sessions[i].Status == models.SessionStatusCompleted {
			completed++
		}
	}
	if completed == 0 {
		return nil, fmt.Errorf("complete report: %w: no completed sessions", models.ErrInvalidTransition)
	}

	responses, err := s.Responses.FindByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	points, err := s.knowledgePointsFor(ctx, responses)
	if err != nil {
		return nil, err
	}

	weaknesses, err := s.synthesizer.Synthesize(rep, responses, points)
	if err != nil {
		return nil, err
	}
	if err := s.Weaknesses.ReplaceForReport(ctx, reportID, weaknesses); err != nil {
		return nil, fmt.Errorf("save weaknesses: %w", err)
	}
	if err := s.Reports.Save(ctx, rep); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.publish(event.ReportCompleted, map[string]interface{}{
		"report_id":        rep.ID,
		"overall_score":    rep.OverallScore,
		"ability_estimate": rep.AbilityEstimate,
	})
	return rep, nil
}

func (s *DiagnosisService) GetReport(ctx context.Context, id string) (*models.DiagnosisReport, error) {
	return s.Reports.FindByID(ctx, id)
}

func (s *DiagnosisService) ListReportsByUser(ctx context.Context, userID string) ([]models.DiagnosisReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", models.ErrInvalidConfig)
	}
	return s.Reports.FindByUser(ctx, userID)
}

func (s *DiagnosisService) GetHeatmap(ctx context.Context, reportID string) (*models.HeatmapData, error) {
	rep, err := s.Reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !rep.IsCompleted() {
		return nil, fmt.Errorf("heatmap: %w: report %s is %q", models.ErrInvalidTransition, reportID, rep.Status)
	}
	return &rep.Heatmap, nil
}

func (s *DiagnosisService) ReportWeaknesses(ctx context.Context, reportID string) ([]models.WeaknessPoint, error) {
	if _, err := s.Reports.FindByID(ctx, reportID); err != nil {
		return nil, err
	}
	return s.Weaknesses.FindByReport(ctx, reportID)
}

// DeleteReport removes a report with everything it owns: sessions,
// responses and weakness points go first so a failed delete can be
// retried.
func (s *DiagnosisService) DeleteReport(ctx context.Context, reportID string) error {
	rep, err := s.Reports.FindByID(ctx, reportID)
	if err != nil {
		return err
	}
	if err := s.Weaknesses.DeleteByReport(ctx, reportID); err != nil {
		return fmt.Errorf("delete weaknesses: %w", err)
	}
	if err := s.Responses.DeleteByReport(ctx, reportID); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	if err := s.Sessions.DeleteByReport(ctx, reportID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if err := s.Reports.Delete(ctx, reportID); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	s.publish(event.ReportDeleted, map[string]interface{}{
		"report_id": rep.ID,
		"user_id":   rep.UserID,
	})
	return nil
}

// GetSession resolves a session by id, falling back to the session
// token so clients can use either handle.
func (s *DiagnosisService) GetSession(ctx context.Context, ref string) (*models.DiagnosisSession, error) {
	session, err := s.Sessions.FindByID(ctx, ref)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return s.Sessions.FindByToken(ctx, ref)
	}
	return nil, err
}

func (s *DiagnosisService) SessionSummary(ctx context.Context, ref string) (map[string]interface{}, error) {
	session, err := s.GetSession(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.engine.Summary(session), nil
}

// SessionPattern derives the read-only response pattern view; it never
// mutates the session.
func (s *DiagnosisService) SessionPattern(ctx context.Context, ref string) (*pattern.Analysis, error) {
	session, err := s.GetSession(ctx, ref)
	if err != nil {
		return nil, err
	}
	responses, err := s.Responses.FindBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	return s.analyzer.Analyze(session, responses), nil
}

func (s *DiagnosisService) ListKnowledgePoints(ctx context.Context, subjectID string) ([]models.KnowledgePoint, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject_id is required", models.ErrInvalidConfig)
	}
	return s.Knowledge.FindBySubject(ctx, subjectID)
}

func (s *DiagnosisService) endSession(ctx context.Context, session *models.DiagnosisSession, completionType string) (*NextItemResult, error) {
	if err := s.engine.End(session, completionType); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.publish(event.SessionCompleted, map[string]interface{}{
		"session_id":      session.ID,
		"report_id":       session.ReportID,
		"completion_type": session.CompletionType,
	})
	return s.finishedResult(session), nil
}

func (s *DiagnosisService) finishedResult(session *models.DiagnosisSession) *NextItemResult {
	return &NextItemResult{
		Finished:        true,
		CompletionType:  session.CompletionType,
		AbilityEstimate: session.CurrentAbilityEstimate,
		StandardError:   session.AbilityStandardError,
	}
}

// grade resolves correctness: the caller's explicit flag wins, otherwise
// the user answer is compared against the bank's correct answer.
func (s *DiagnosisService) grade(question *models.Question, input AnswerInput) bool {
	if input.Correct != nil {
		return *input.Correct
	}
	return strings.EqualFold(strings.TrimSpace(input.UserAnswer), strings.TrimSpace(question.CorrectAnswer))
}

func (s *DiagnosisService) knowledgePointsFor(ctx context.Context, responses []models.QuestionResponse) (map[string]models.KnowledgePoint, error) {
	seen := map[string]bool{}
	ids := []string{}
	for i := range responses {
		id := responses[i].KnowledgePointID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	points, err := s.Knowledge.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load knowledge points: %w", err)
	}
	byID := make(map[string]models.KnowledgePoint, len(points))
	for i := range points {
		byID[points[i].ID] = points[i]
	}
	return byID, nil
}

func (s *DiagnosisService) lockSession(id string) func() {
	v, _ := s.sessionLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// publish sends a lifecycle event after the transition committed;
// broker failures are logged, never surfaced to the caller.
func (s *DiagnosisService) publish(eventType string, payload interface{}) {
	if err := s.publisher.Publish(eventType, payload); err != nil {
		log.Printf("publish %s: %v", eventType, err)
	}
}

func applyReportDefaults(config *models.ReportConfig) {
	if config.QuestionCount == 0 {
		config.QuestionCount = 20
	}
	if config.DifficultyMin == 0 {
		config.DifficultyMin = models.DifficultyMin
	}
	if config.DifficultyMax == 0 {
		config.DifficultyMax = models.DifficultyMax
	}
}

package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"diagnosis-service/internal/models"
)

func boolPtr(v bool) *bool { return &v }

func adaptiveReportConfig() models.ReportConfig {
	return models.ReportConfig{QuestionCount: 20, DifficultyMin: 1, DifficultyMax: 5, AdaptiveEnabled: true}
}

func mustCreateReport(t *testing.T, svc *DiagnosisService, config models.ReportConfig) *models.DiagnosisReport {
	t.Helper()
	rep, err := svc.CreateReport(context.Background(), "user-1", "subject-1", config)
	if err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}
	return rep
}

func mustStartSession(t *testing.T, svc *DiagnosisService, reportID string, config models.SessionConfig) *models.DiagnosisSession {
	t.Helper()
	session, err := svc.StartSession(context.Background(), reportID, models.LevelApplication, config)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	return session
}

func TestCreateReport(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateReport(ctx, "", "subject-1", adaptiveReportConfig()); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for empty user, got %v", err)
	}
	bad := adaptiveReportConfig()
	bad.DifficultyMin = 4
	bad.DifficultyMax = 2
	if _, err := svc.CreateReport(ctx, "user-1", "subject-1", bad); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for inverted difficulty range, got %v", err)
	}

	rep, err := svc.CreateReport(ctx, "user-1", "subject-1", models.ReportConfig{AdaptiveEnabled: true})
	if err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}
	if rep.ID == "" {
		t.Error("Expected an assigned report id")
	}
	if rep.Status != models.ReportStatusPending {
		t.Errorf("Expected status pending, got %q", rep.Status)
	}
	if rep.Config.QuestionCount != 20 || rep.Config.DifficultyMin != 1 || rep.Config.DifficultyMax != 5 {
		t.Errorf("Expected defaults applied, got %+v", rep.Config)
	}
}

func TestStartSession(t *testing.T) {
	svc, _, reports, _, _, _, _ := newTestService()
	ctx := context.Background()
	rep := mustCreateReport(t, svc, adaptiveReportConfig())

	if _, err := svc.StartSession(ctx, "missing", models.LevelMemory, models.SessionConfig{}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing report, got %v", err)
	}
	if _, err := svc.StartSession(ctx, rep.ID, "guessing", models.SessionConfig{}); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unknown level, got %v", err)
	}

	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})
	if session.Status != models.SessionStatusInProgress {
		t.Errorf("Expected session in_progress, got %q", session.Status)
	}
	if session.SessionToken == "" {
		t.Error("Expected a session token")
	}
	if session.UserID != "user-1" || session.SubjectID != "subject-1" {
		t.Errorf("Expected identity inherited from report, got user %q subject %q", session.UserID, session.SubjectID)
	}

	stored, _ := reports.FindByID(ctx, rep.ID)
	if stored.Status != models.ReportStatusInProgress {
		t.Errorf("Expected report in_progress after first session, got %q", stored.Status)
	}
}

func TestStartSessionInheritsReportBounds(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService()
	config := models.ReportConfig{QuestionCount: 15, DifficultyMin: 2, DifficultyMax: 4, AdaptiveEnabled: true}
	rep := mustCreateReport(t, svc, config)

	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})
	if session.Config.DifficultyMin != 2 || session.Config.DifficultyMax != 4 {
		t.Errorf("Expected difficulty bounds 2..4, got %d..%d", session.Config.DifficultyMin, session.Config.DifficultyMax)
	}
	if session.Config.MaxQuestions != 15 {
		t.Errorf("Expected max questions from report plan 15, got %d", session.Config.MaxQuestions)
	}
	if session.Config.MinQuestions != 10 {
		t.Errorf("Expected default min questions 10, got %d", session.Config.MinQuestions)
	}
}

func TestStartSessionFixedLengthWhenAdaptiveDisabled(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService()
	config := models.ReportConfig{QuestionCount: 5, DifficultyMin: 1, DifficultyMax: 5, AdaptiveEnabled: false}
	rep := mustCreateReport(t, svc, config)

	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})
	if session.Config.MinQuestions != 5 || session.Config.MaxQuestions != 5 {
		t.Errorf("Expected fixed length 5..5, got %d..%d", session.Config.MinQuestions, session.Config.MaxQuestions)
	}
}

func TestStartSessionRejectsMinAboveMax(t *testing.T) {
	svc, _, _, sessions, _, _, _ := newTestService()
	rep := mustCreateReport(t, svc, adaptiveReportConfig())

	_, err := svc.StartSession(context.Background(), rep.ID, models.LevelApplication, models.SessionConfig{MinQuestions: 20, MaxQuestions: 10})
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for min 20 above max 10, got %v", err)
	}
	if len(sessions.byID) != 0 {
		t.Errorf("Expected no session persisted after rejection, got %d", len(sessions.byID))
	}

	// A short report plan still caps the engine's default minimum.
	short := mustCreateReport(t, svc, models.ReportConfig{QuestionCount: 5, DifficultyMin: 1, DifficultyMax: 5, AdaptiveEnabled: true})
	session := mustStartSession(t, svc, short.ID, models.SessionConfig{})
	if session.Config.MinQuestions != 5 || session.Config.MaxQuestions != 5 {
		t.Errorf("Expected derived bounds clamped to 5..5, got %d..%d", session.Config.MinQuestions, session.Config.MaxQuestions)
	}
}

func TestStartSessionRejectedOnCompletedReport(t *testing.T) {
	svc, bank, _, _, _, _, _ := newTestService()
	question := seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{MinQuestions: 1, MaxQuestions: 1})

	submitCorrect(t, svc, session.ID, question.ID)
	if _, err := svc.CompleteReport(context.Background(), rep.ID); err != nil {
		t.Fatalf("CompleteReport failed: %v", err)
	}

	_, err := svc.StartSession(context.Background(), rep.ID, models.LevelTransfer, models.SessionConfig{})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on completed report, got %v", err)
	}
}

func submitCorrect(t *testing.T, svc *DiagnosisService, sessionID, questionID string) *AnswerOutcome {
	t.Helper()
	outcome, err := svc.SubmitAnswer(context.Background(), sessionID, AnswerInput{
		QuestionID:       questionID,
		Correct:          boolPtr(true),
		TimeSpentSeconds: 30,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer(%s) failed: %v", questionID, err)
	}
	return outcome
}

func TestNextItemServesAndMarksQuestion(t *testing.T) {
	svc, bank, _, sessions, _, _, _ := newTestService()
	ctx := context.Background()
	seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	seedQuestion(bank, "subject-1", "kp-b", 3, "B")

	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})

	result, err := svc.NextItem(ctx, session.ID)
	if err != nil {
		t.Fatalf("NextItem failed: %v", err)
	}
	if result.Finished {
		t.Fatal("Expected an item, got finished result")
	}
	if result.TargetDifficulty != 3 {
		t.Errorf("Expected target difficulty 3 at ability 0, got %d", result.TargetDifficulty)
	}
	if result.Question == nil {
		t.Fatal("Expected a question")
	}
	if result.Question.CorrectAnswer != "" || result.Question.Explanation != "" {
		t.Error("Expected answer fields stripped from served question")
	}

	stored, _ := sessions.FindByID(ctx, session.ID)
	if len(stored.UsedQuestionIDs) != 1 || stored.UsedQuestionIDs[0] != result.Question.ID {
		t.Errorf("Expected served question marked used, got %v", stored.UsedQuestionIDs)
	}
	if len(stored.CoveredKnowledgePoints) != 1 {
		t.Errorf("Expected one covered knowledge point, got %v", stored.CoveredKnowledgePoints)
	}
}

func TestNextItemEndsSessionWhenPoolExhausted(t *testing.T) {
	svc, _, _, sessions, _, _, _ := newTestService()
	ctx := context.Background()
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})

	result, err := svc.NextItem(ctx, session.ID)
	if err != nil {
		t.Fatalf("NextItem failed: %v", err)
	}
	if !result.Finished || result.CompletionType != models.CompletionPoolExhausted {
		t.Errorf("Expected pool_exhausted finish, got %+v", result)
	}

	stored, _ := sessions.FindByID(ctx, session.ID)
	if stored.Status != models.SessionStatusCompleted {
		t.Errorf("Expected session completed, got %q", stored.Status)
	}

	// A finished session keeps answering next-item reads idempotently
	again, err := svc.NextItem(ctx, session.ID)
	if err != nil {
		t.Fatalf("NextItem on finished session failed: %v", err)
	}
	if !again.Finished || again.CompletionType != models.CompletionPoolExhausted {
		t.Errorf("Expected stable finished result, got %+v", again)
	}
}

func TestNextItemStopsBeforeServingAtQuestionLimit(t *testing.T) {
	svc, bank, _, sessions, _, _, _ := newTestService()
	ctx := context.Background()
	seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{MinQuestions: 1, MaxQuestions: 2})

	// Simulate a session whose completing write never landed
	stored, _ := sessions.FindByID(ctx, session.ID)
	stored.QuestionsAnswered = 2
	if err := sessions.Save(ctx, stored); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	result, err := svc.NextItem(ctx, session.ID)
	if err != nil {
		t.Fatalf("NextItem failed: %v", err)
	}
	if !result.Finished || result.CompletionType != models.CompletionMaxQuestions {
		t.Errorf("Expected max_questions finish before serving, got %+v", result)
	}
}

func TestSubmitAnswerLoopStopsAtMinQuestions(t *testing.T) {
	svc, bank, _, sessions, responses, _, _ := newTestService()
	ctx := context.Background()
	q1 := seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	q2 := seedQuestion(bank, "subject-1", "kp-b", 3, "B")
	q3 := seedQuestion(bank, "subject-1", "kp-c", 3, "C")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{MinQuestions: 3, MaxQuestions: 5})

	first := submitCorrect(t, svc, session.ID, q1.ID)
	if !first.ShouldContinue {
		t.Error("Expected continuation after first answer")
	}
	second := submitCorrect(t, svc, session.ID, q2.ID)
	if !second.ShouldContinue {
		t.Error("Expected continuation after second answer")
	}

	third := submitCorrect(t, svc, session.ID, q3.ID)
	if third.ShouldContinue {
		t.Error("Expected stop after reaching min questions with a settled estimate")
	}
	if third.CompletionType != models.CompletionAdaptiveStop {
		t.Errorf("Expected adaptive_stop, got %q", third.CompletionType)
	}
	if third.QuestionsAnswered != 3 {
		t.Errorf("Expected 3 answered, got %d", third.QuestionsAnswered)
	}
	if math.Abs(third.AbilityEstimate-0.3) > 1e-9 {
		t.Errorf("Expected ability 0.3 after three correct answers, got %f", third.AbilityEstimate)
	}

	stored, _ := sessions.FindByID(ctx, session.ID)
	if stored.Status != models.SessionStatusCompleted {
		t.Errorf("Expected completed session, got %q", stored.Status)
	}
	rows, _ := responses.FindBySession(ctx, session.ID)
	if len(rows) != 3 {
		t.Errorf("Expected 3 stored responses, got %d", len(rows))
	}

	if _, err := svc.SubmitAnswer(ctx, session.ID, AnswerInput{QuestionID: q1.ID, Correct: boolPtr(true)}); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition after completion, got %v", err)
	}
}

func TestSubmitAnswerGradesAgainstBank(t *testing.T) {
	svc, bank, _, _, responses, _, _ := newTestService()
	ctx := context.Background()
	question := seedQuestion(bank, "subject-1", "kp-a", 3, "B")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})

	outcome, err := svc.SubmitAnswer(ctx, session.ID, AnswerInput{QuestionID: question.ID, UserAnswer: " b "})
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if !outcome.Correct {
		t.Error("Expected case-insensitive grading to mark answer correct")
	}

	rows, _ := responses.FindBySession(ctx, session.ID)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(rows))
	}
	if rows[0].Difficulty != 3 || rows[0].KnowledgePointID != "kp-a" {
		t.Errorf("Expected snapshot from bank item, got %+v", rows[0])
	}
	if rows[0].QuestionContent != question.Content {
		t.Errorf("Expected question content snapshot %q, got %q", question.Content, rows[0].QuestionContent)
	}
}

func TestSubmitAnswerValidatesTaggedRecord(t *testing.T) {
	svc, bank, _, sessions, responses, _, _ := newTestService()
	ctx := context.Background()
	question := seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})

	_, err := svc.SubmitAnswer(ctx, session.ID, AnswerInput{QuestionID: question.ID, Correct: boolPtr(true), ErrorType: "lazy"})
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unknown error type, got %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, session.ID, AnswerInput{QuestionID: "missing", Correct: boolPtr(true)}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown question, got %v", err)
	}

	stored, _ := sessions.FindByID(ctx, session.ID)
	if stored.QuestionsAnswered != 0 {
		t.Errorf("Expected counters untouched after rejected submits, got %d", stored.QuestionsAnswered)
	}
	rows, _ := responses.FindBySession(ctx, session.ID)
	if len(rows) != 0 {
		t.Errorf("Expected no stored responses, got %d", len(rows))
	}
}

func TestCancelSession(t *testing.T) {
	svc, _, _, sessions, _, _, _ := newTestService()
	ctx := context.Background()
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})

	cancelled, err := svc.CancelSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("CancelSession failed: %v", err)
	}
	if cancelled.Status != models.SessionStatusCancelled {
		t.Errorf("Expected cancelled, got %q", cancelled.Status)
	}
	stored, _ := sessions.FindByID(ctx, session.ID)
	if stored.Status != models.SessionStatusCancelled {
		t.Errorf("Expected cancellation persisted, got %q", stored.Status)
	}

	if _, err := svc.CancelSession(ctx, session.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second cancel, got %v", err)
	}
}

func TestCompleteReportGate(t *testing.T) {
	svc, bank, _, _, _, _, _ := newTestService()
	ctx := context.Background()
	seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())

	if _, err := svc.CompleteReport(ctx, rep.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition with no sessions, got %v", err)
	}

	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})
	if _, err := svc.CompleteReport(ctx, rep.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition with a running session, got %v", err)
	}

	if _, err := svc.CancelSession(ctx, session.ID); err != nil {
		t.Fatalf("CancelSession failed: %v", err)
	}
	if _, err := svc.CompleteReport(ctx, rep.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition with only cancelled sessions, got %v", err)
	}
}

func TestCompleteReportSynthesizes(t *testing.T) {
	svc, bank, _, _, _, weaknesses, knowledge := newTestService()
	ctx := context.Background()
	qa := seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	qb1 := seedQuestion(bank, "subject-1", "kp-b", 3, "B")
	qb2 := seedQuestion(bank, "subject-1", "kp-b", 3, "B")
	knowledge.points = []models.KnowledgePoint{
		{ID: "kp-a", SubjectID: "subject-1", Name: "Algebra", Priority: 3},
		{ID: "kp-b", SubjectID: "subject-1", Name: "Graphs", Priority: 1, Prerequisites: []string{"kp-a"}},
	}

	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{MinQuestions: 3, MaxQuestions: 5})

	submitCorrect(t, svc, session.ID, qa.ID)
	for _, id := range []string{qb1.ID, qb2.ID} {
		if _, err := svc.SubmitAnswer(ctx, session.ID, AnswerInput{QuestionID: id, Correct: boolPtr(false), TimeSpentSeconds: 45}); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
	}

	completed, err := svc.CompleteReport(ctx, rep.ID)
	if err != nil {
		t.Fatalf("CompleteReport failed: %v", err)
	}
	if !completed.IsCompleted() {
		t.Errorf("Expected completed report, got %q", completed.Status)
	}
	if math.Abs(completed.OverallScore-100.0/3.0) > 1e-9 {
		t.Errorf("Expected weighted overall score 33.33, got %f", completed.OverallScore)
	}

	stored, _ := weaknesses.FindByReport(ctx, rep.ID)
	if len(stored) != 1 {
		t.Fatalf("Expected 1 weakness point, got %d", len(stored))
	}
	if stored[0].KnowledgePointID != "kp-b" || stored[0].ReportID != rep.ID {
		t.Errorf("Expected kp-b flagged for this report, got %+v", stored[0])
	}
	if stored[0].KnowledgePointName != "Graphs" || stored[0].Priority != 1 {
		t.Errorf("Expected knowledge point metadata resolved, got %+v", stored[0])
	}

	if len(completed.LearningPath) != 1 {
		t.Fatalf("Expected 1 learning path step, got %d", len(completed.LearningPath))
	}
	step := completed.LearningPath[0]
	if step.Strategy != models.StrategyFoundationBuilding {
		t.Errorf("Expected foundation_building for mastery 0, got %q", step.Strategy)
	}
	if math.Abs(step.EstimatedHours-12.0) > 1e-9 {
		t.Errorf("Expected 12.0 hours at priority 1, got %f", step.EstimatedHours)
	}
	if len(step.Prerequisites) != 1 || step.Prerequisites[0] != "kp-a" {
		t.Errorf("Expected prerequisites carried over, got %v", step.Prerequisites)
	}

	// Re-running rebuilds the same artifacts
	again, err := svc.CompleteReport(ctx, rep.ID)
	if err != nil {
		t.Fatalf("CompleteReport rerun failed: %v", err)
	}
	if again.OverallScore != completed.OverallScore || len(again.WeaknessPoints) != len(completed.WeaknessPoints) {
		t.Error("Expected identical artifacts on rerun")
	}
}

func TestDeleteReportCascades(t *testing.T) {
	svc, bank, reports, sessions, responses, weaknesses, _ := newTestService()
	ctx := context.Background()
	question := seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{MinQuestions: 1, MaxQuestions: 1})
	submitCorrect(t, svc, session.ID, question.ID)
	if _, err := svc.CompleteReport(ctx, rep.ID); err != nil {
		t.Fatalf("CompleteReport failed: %v", err)
	}

	if err := svc.DeleteReport(ctx, rep.ID); err != nil {
		t.Fatalf("DeleteReport failed: %v", err)
	}
	if _, err := reports.FindByID(ctx, rep.ID); !errors.Is(err, models.ErrNotFound) {
		t.Error("Expected report gone")
	}
	if rows, _ := sessions.FindByReport(ctx, rep.ID); len(rows) != 0 {
		t.Errorf("Expected sessions gone, got %d", len(rows))
	}
	if rows, _ := responses.FindByReport(ctx, rep.ID); len(rows) != 0 {
		t.Errorf("Expected responses gone, got %d", len(rows))
	}
	if rows, _ := weaknesses.FindByReport(ctx, rep.ID); len(rows) != 0 {
		t.Errorf("Expected weaknesses gone, got %d", len(rows))
	}

	if err := svc.DeleteReport(ctx, rep.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestGetSessionResolvesToken(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService()
	ctx := context.Background()
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})

	byToken, err := svc.GetSession(ctx, session.SessionToken)
	if err != nil {
		t.Fatalf("GetSession by token failed: %v", err)
	}
	if byToken.ID != session.ID {
		t.Errorf("Expected session %s, got %s", session.ID, byToken.ID)
	}

	summary, err := svc.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("SessionSummary failed: %v", err)
	}
	if summary["status"] != models.SessionStatusInProgress {
		t.Errorf("Expected in_progress summary, got %v", summary["status"])
	}
}

func TestSessionPattern(t *testing.T) {
	svc, bank, _, _, _, _, _ := newTestService()
	ctx := context.Background()
	q1 := seedQuestion(bank, "subject-1", "kp-a", 3, "A")
	q2 := seedQuestion(bank, "subject-1", "kp-b", 3, "B")
	rep := mustCreateReport(t, svc, adaptiveReportConfig())
	session := mustStartSession(t, svc, rep.ID, models.SessionConfig{})

	submitCorrect(t, svc, session.ID, q1.ID)
	if _, err := svc.SubmitAnswer(ctx, session.ID, AnswerInput{QuestionID: q2.ID, Correct: boolPtr(false), TimeSpentSeconds: 60}); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	analysis, err := svc.SessionPattern(ctx, session.ID)
	if err != nil {
		t.Fatalf("SessionPattern failed: %v", err)
	}
	if analysis.QuestionsAnswered != 2 {
		t.Errorf("Expected 2 answered in analysis, got %d", analysis.QuestionsAnswered)
	}
	if math.Abs(analysis.AccuracyRate-0.5) > 1e-9 {
		t.Errorf("Expected accuracy 0.5, got %f", analysis.AccuracyRate)
	}
}

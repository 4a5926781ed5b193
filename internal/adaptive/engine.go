package adaptive

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"diagnosis-service/internal/estimator"
	"diagnosis-service/internal/models"
)

// Engine drives the diagnosis session lifecycle: forward-only status
// transitions, one estimate update per answer, and the precision-based
// stopping rule. It mutates sessions in memory only; persistence is the
// caller's job, so a failed transition leaves nothing half-written.
type Engine struct {
	config *Config
	est    *estimator.Estimator
}

func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.StabilityWindow < 1 {
		config.StabilityWindow = DefaultConfig().StabilityWindow
	}
	return &Engine{
		config: config,
		est:    estimator.New(config.AbilityStep),
	}
}

// NewSession builds a pending session with engine defaults applied to
// any zero config fields.
func (e *Engine) NewSession(reportID, userID, subjectID, level string, config models.SessionConfig) *models.DiagnosisSession {
	if config.MinQuestions == 0 {
		config.MinQuestions = e.config.MinQuestions
	}
	if config.MaxQuestions == 0 {
		config.MaxQuestions = e.config.MaxQuestions
	}
	if config.TargetPrecision == 0 {
		config.TargetPrecision = e.config.TargetPrecision
	}
	if config.DifficultyMin == 0 {
		config.DifficultyMin = models.DifficultyMin
	}
	if config.DifficultyMax == 0 {
		config.DifficultyMax = models.DifficultyMax
	}

	return &models.DiagnosisSession{
		ReportID:               reportID,
		UserID:                 userID,
		SubjectID:              subjectID,
		Level:                  level,
		SessionToken:           uuid.New().String(),
		Status:                 models.SessionStatusPending,
		Config:                 config,
		CurrentAbilityEstimate: config.InitialAbility,
		AbilityStandardError:   estimator.StandardError(0),
		AbilityProgression:     []models.AbilityObservation{},
		UsedQuestionIDs:        []string{},
		CoveredKnowledgePoints: []string{},
		CreatedAt:              time.Now().UTC(),
	}
}

// Start activates a pending session.
func (e *Engine) Start(session *models.DiagnosisSession) error {
	if session.Status != models.SessionStatusPending {
		return fmt.Errorf("start session: %w: session is %q", models.ErrInvalidTransition, session.Status)
	}
	session.Status = models.SessionStatusInProgress
	session.StartedAt = time.Now().UTC()
	return nil
}

// MarkServed records that an item went out to the learner, so the
// selector never serves it again and its knowledge point counts as
// covered.
func (e *Engine) MarkServed(session *models.DiagnosisSession, question *models.Question) error {
	if session.Status != models.SessionStatusInProgress {
		return fmt.Errorf("serve item: %w: session is %q", models.ErrInvalidTransition, session.Status)
	}
	if !containsString(session.UsedQuestionIDs, question.ID) {
		session.UsedQuestionIDs = append(session.UsedQuestionIDs, question.ID)
	}
	if question.KnowledgePointID != "" && !session.HasCovered(question.KnowledgePointID) {
		session.CoveredKnowledgePoints = append(session.CoveredKnowledgePoints, question.KnowledgePointID)
	}
	return nil
}

// RecordAnswer applies one answer to the running estimate and appends
// the transition to the progression log. Counters stay untouched when
// the transition is rejected.
func (e *Engine) RecordAnswer(session *models.DiagnosisSession, correct bool, difficulty int) error {
	if session.Status != models.SessionStatusInProgress {
		return fmt.Errorf("record answer: %w: session is %q", models.ErrInvalidTransition, session.Status)
	}
	if session.QuestionsAnswered >= session.Config.MaxQuestions {
		return fmt.Errorf("record answer: %w: question limit %d reached", models.ErrInvalidTransition, session.Config.MaxQuestions)
	}

	previous := session.CurrentAbilityEstimate
	next := e.est.IncrementalUpdate(previous, correct)

	session.AbilityProgression = append(session.AbilityProgression, models.AbilityObservation{
		QuestionIndex:    session.CurrentQuestionIndex,
		PreviousEstimate: previous,
		NewEstimate:      next,
		Correct:          correct,
		Difficulty:       models.ClampDifficulty(difficulty),
		RecordedAt:       time.Now().UTC(),
	})

	session.CurrentAbilityEstimate = next
	session.QuestionsAnswered++
	if correct {
		session.CorrectAnswers++
	}
	session.CurrentQuestionIndex++
	session.AbilityStandardError = estimator.StandardError(session.QuestionsAnswered)
	session.AccuracyRate = float64(session.CorrectAnswers) / float64(session.QuestionsAnswered)
	return nil
}

// ShouldContinue evaluates the stopping rule without changing any
// session state. Below min_questions it always continues, at
// max_questions it always stops, and in between it stops once the mean
// squared deviation of the recent estimates from the current one drops
// below the target precision.
func (e *Engine) ShouldContinue(session *models.DiagnosisSession) bool {
	if session.Status != models.SessionStatusInProgress {
		return false
	}
	if session.QuestionsAnswered >= session.Config.MaxQuestions {
		return false
	}
	if session.QuestionsAnswered < session.Config.MinQuestions {
		return true
	}

	window := e.config.StabilityWindow
	total := len(session.AbilityProgression)
	if total == 0 {
		return true
	}
	if total < window {
		window = total
	}

	current := session.CurrentAbilityEstimate
	var sum float64
	for _, obs := range session.AbilityProgression[total-window:] {
		deviation := obs.PreviousEstimate - current
		sum += deviation * deviation
	}
	return sum/float64(window) >= session.Config.TargetPrecision
}

// StopReason names the completion type once ShouldContinue returned
// false for an active session.
func (e *Engine) StopReason(session *models.DiagnosisSession) string {
	if session.QuestionsAnswered >= session.Config.MaxQuestions {
		return models.CompletionMaxQuestions
	}
	return models.CompletionAdaptiveStop
}

// End completes an active session. The completion type records why it
// stopped; empty means a manual finish.
func (e *Engine) End(session *models.DiagnosisSession, completionType string) error {
	if session.Status != models.SessionStatusInProgress {
		return fmt.Errorf("end session: %w: session is %q", models.ErrInvalidTransition, session.Status)
	}
	if completionType == "" {
		completionType = models.CompletionManual
	}
	session.Status = models.SessionStatusCompleted
	session.CompletionType = completionType
	session.EndedAt = time.Now().UTC()
	return nil
}

// Cancel aborts a pending or active session. Terminal sessions stay
// terminal.
func (e *Engine) Cancel(session *models.DiagnosisSession) error {
	if session.Finished() {
		return fmt.Errorf("cancel session: %w: session is %q", models.ErrInvalidTransition, session.Status)
	}
	session.Status = models.SessionStatusCancelled
	session.EndedAt = time.Now().UTC()
	return nil
}

// Summary provides a compact view of the live session state.
func (e *Engine) Summary(session *models.DiagnosisSession) map[string]interface{} {
	return map[string]interface{}{
		"session_id":         session.ID,
		"status":             session.Status,
		"level":              session.Level,
		"ability_estimate":   session.CurrentAbilityEstimate,
		"standard_error":     session.AbilityStandardError,
		"questions_answered": session.QuestionsAnswered,
		"correct_answers":    session.CorrectAnswers,
		"accuracy_rate":      session.AccuracyRate,
		"should_continue":    e.ShouldContinue(session),
	}
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"diagnosis-service/internal/models"
	"diagnosis-service/internal/service"

	"github.com/gin-gonic/gin"
)

type DiagnosisHandler struct {
	Service *service.DiagnosisService
}

func NewDiagnosisHandler(s *service.DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{Service: s}
}

// CreateReport opens a new diagnosis for the authenticated user
func (h *DiagnosisHandler) CreateReport(c *gin.Context) {
	var req struct {
		SubjectID        string `json:"subject_id" binding:"required"`
		QuestionCount    int    `json:"question_count"`
		TimeLimitSeconds int    `json:"time_limit_seconds"`
		DifficultyMin    int    `json:"difficulty_min"`
		DifficultyMax    int    `json:"difficulty_max"`
		AdaptiveEnabled  *bool  `json:"adaptive_enabled"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID is required",
		})
		return
	}

	// Adaptive selection stays on unless the caller turns it off
	adaptiveEnabled := true
	if req.AdaptiveEnabled != nil {
		adaptiveEnabled = *req.AdaptiveEnabled
	}

	report, err := h.Service.CreateReport(context.Background(), userID, req.SubjectID, models.ReportConfig{
		QuestionCount:    req.QuestionCount,
		TimeLimitSeconds: req.TimeLimitSeconds,
		DifficultyMin:    req.DifficultyMin,
		DifficultyMax:    req.DifficultyMax,
		AdaptiveEnabled:  adaptiveEnabled,
	})
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"report":    report,
		"message":   "Diagnosis report created",
		"next_step": "Start a session to begin answering",
	})
}

// GetReport retrieves report information
func (h *DiagnosisHandler) GetReport(c *gin.Context) {
	id := c.Param("id")
	report, err := h.Service.GetReport(context.Background(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "Report not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListReports returns the authenticated user's reports, newest first
func (h *DiagnosisHandler) ListReports(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID is required",
		})
		return
	}

	reports, err := h.Service.ListReportsByUser(context.Background(), userID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// CompleteReport synthesizes the final report once every session finished
func (h *DiagnosisHandler) CompleteReport(c *gin.Context) {
	id := c.Param("id")
	report, err := h.Service.CompleteReport(context.Background(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{
			"error":   "Failed to complete report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"message": "Diagnosis report completed",
	})
}

// DeleteReport removes a report with its sessions, responses and weaknesses
func (h *DiagnosisHandler) DeleteReport(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.DeleteReport(context.Background(), id); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report deleted"})
}

// GetHeatmap returns the per knowledge point mastery grid of a completed report
func (h *DiagnosisHandler) GetHeatmap(c *gin.Context) {
	id := c.Param("id")
	heatmap, err := h.Service.GetHeatmap(context.Background(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"heatmap":   heatmap,
		"report_id": id,
	})
}

// GetWeaknesses lists the ranked weakness points of a report
func (h *DiagnosisHandler) GetWeaknesses(c *gin.Context) {
	id := c.Param("id")
	weaknesses, err := h.Service.ReportWeaknesses(context.Background(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"weakness_points": weaknesses,
		"count":           len(weaknesses),
		"report_id":       id,
	})
}

// StartSession opens an adaptive session under an existing report
func (h *DiagnosisHandler) StartSession(c *gin.Context) {
	reportID := c.Param("id")

	var req struct {
		Level           string  `json:"level" binding:"required"`
		MinQuestions    int     `json:"min_questions"`
		MaxQuestions    int     `json:"max_questions"`
		TargetPrecision float64 `json:"target_precision"`
		InitialAbility  float64 `json:"initial_ability"`
		DifficultyMin   int     `json:"difficulty_min"`
		DifficultyMax   int     `json:"difficulty_max"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	session, err := h.Service.StartSession(context.Background(), reportID, req.Level, models.SessionConfig{
		MinQuestions:    req.MinQuestions,
		MaxQuestions:    req.MaxQuestions,
		TargetPrecision: req.TargetPrecision,
		InitialAbility:  req.InitialAbility,
		DifficultyMin:   req.DifficultyMin,
		DifficultyMax:   req.DifficultyMax,
	})
	if err != nil {
		c.JSON(statusFromError(err), gin.H{
			"error":   "Failed to start session",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":       session,
		"session_token": session.SessionToken,
		"message":       "Diagnosis session started",
		"next_step":     "Call the next endpoint to get the first question",
	})
}

// GetSession retrieves session information by id or session token
func (h *DiagnosisHandler) GetSession(c *gin.Context) {
	ref := c.Param("id")
	session, err := h.Service.GetSession(context.Background(), ref)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetSessionStatus returns the live adaptive state of a session
func (h *DiagnosisHandler) GetSessionStatus(c *gin.Context) {
	ref := c.Param("id")
	summary, err := h.Service.SessionSummary(context.Background(), ref)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    summary,
		"timestamp": time.Now(),
	})
}

// GetSessionPattern returns trend and consistency signals for a session
func (h *DiagnosisHandler) GetSessionPattern(c *gin.Context) {
	ref := c.Param("id")
	analysis, err := h.Service.SessionPattern(context.Background(), ref)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis":   analysis,
		"session_id": analysis.SessionID,
	})
}

// NextItem serves the next question chosen by the adaptive selector
func (h *DiagnosisHandler) NextItem(c *gin.Context) {
	sessionID := c.Param("id")

	result, err := h.Service.NextItem(context.Background(), sessionID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{
			"error":   "No next question available",
			"details": err.Error(),
		})
		return
	}

	if result.Finished {
		c.JSON(http.StatusOK, gin.H{
			"completed":        true,
			"completion_type":  result.CompletionType,
			"ability_estimate": result.AbilityEstimate,
			"standard_error":   result.StandardError,
			"message":          "Diagnosis session has finished",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question":          result.Question,
		"target_difficulty": result.TargetDifficulty,
		"ability_estimate":  result.AbilityEstimate,
		"standard_error":    result.StandardError,
	})
}

// SubmitAnswer records an answer and advances the ability estimate
func (h *DiagnosisHandler) SubmitAnswer(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		QuestionID       string `json:"question_id" binding:"required"`
		UserAnswer       string `json:"user_answer"`
		Correct          *bool  `json:"correct"`
		TimeSpentSeconds int    `json:"time_spent_seconds"`
		Confidence       int    `json:"confidence"`
		ErrorType        string `json:"error_type"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.Service.SubmitAnswer(context.Background(), sessionID, service.AnswerInput{
		QuestionID:       req.QuestionID,
		UserAnswer:       req.UserAnswer,
		Correct:          req.Correct,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Confidence:       req.Confidence,
		ErrorType:        req.ErrorType,
	})
	if err != nil {
		c.JSON(statusFromError(err), gin.H{
			"error":   "Failed to process answer",
			"details": err.Error(),
		})
		return
	}

	response := gin.H{
		"answer_processed":   true,
		"is_correct":         outcome.Correct,
		"should_continue":    outcome.ShouldContinue,
		"ability_estimate":   outcome.AbilityEstimate,
		"standard_error":     outcome.StandardError,
		"questions_answered": outcome.QuestionsAnswered,
	}

	if !outcome.ShouldContinue {
		response["completion_type"] = outcome.CompletionType
		response["completion_message"] = "Diagnosis session has finished"
	}

	c.JSON(http.StatusOK, response)
}

// CancelSession abandons an in-progress session
func (h *DiagnosisHandler) CancelSession(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.Service.CancelSession(context.Background(), sessionID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{
			"error":   "Failed to cancel session",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"message": "Session cancelled",
	})
}

// ListKnowledgePoints returns the shared knowledge points of a subject
func (h *DiagnosisHandler) ListKnowledgePoints(c *gin.Context) {
	subjectID := c.Query("subject_id")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "subject_id is required",
		})
		return
	}

	points, err := h.Service.ListKnowledgePoints(context.Background(), subjectID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"knowledge_points": points,
		"count":            len(points),
	})
}

// HealthCheck reports service liveness
func (h *DiagnosisHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "diagnosis-service",
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// statusFromError maps service errors onto transport codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

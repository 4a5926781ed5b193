package handlers

import (
	"context"
	"net/http"
	"strconv"

	"diagnosis-service/internal/models"
	"diagnosis-service/internal/service"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	Service *service.QuestionService
}

func NewQuestionHandler(s *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{Service: s}
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.Create(context.Background(), &question); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, question)
}

// BulkImportQuestions stores a batch of bank items in one call
func (h *QuestionHandler) BulkImportQuestions(c *gin.Context) {
	var req struct {
		Questions []models.Question `json:"questions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := h.Service.BulkImport(context.Background(), req.Questions)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{
			"error":   "Bulk import failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"imported": count,
		"message":  "Questions imported successfully",
	})
}

// ListQuestions filters the bank by subject, knowledge point and difficulty
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	subjectID := c.Query("subject_id")
	knowledgePointID := c.Query("knowledge_point_id")

	difficulty := 0
	if raw := c.Query("difficulty"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be a number"})
			return
		}
		difficulty = parsed
	}

	questions, err := h.Service.List(context.Background(), subjectID, knowledgePointID, difficulty)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"count":     len(questions),
	})
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := c.Param("id")
	question, err := h.Service.Get(context.Background(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "Question not found"})
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := c.Param("id")
	var patch service.QuestionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.Update(context.Background(), id, patch); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.Delete(context.Background(), id); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// GetPoolInfo reports whether a subject's bank can sustain a session
func (h *QuestionHandler) GetPoolInfo(c *gin.Context) {
	subjectID := c.Query("subject_id")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "subject_id is required",
		})
		return
	}

	required := 0
	if raw := c.Query("required"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "required must be a number"})
			return
		}
		required = parsed
	}

	info, err := h.Service.PoolInfo(context.Background(), subjectID, required)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{
			"error":   "Failed to get pool info",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pool_info":  info,
		"subject_id": subjectID,
	})
}

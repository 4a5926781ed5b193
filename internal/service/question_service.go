package service

import (
	"context"
	"fmt"
	"time"

	"diagnosis-service/internal/adaptive"
	"diagnosis-service/internal/models"
	"diagnosis-service/internal/selection"

	"go.mongodb.org/mongo-driver/bson"
)

// QuestionStore is the bank admin surface plus the candidate fetch the
// pool manager runs on.
type QuestionStore interface {
	Create(ctx context.Context, question *models.Question) error
	CreateMany(ctx context.Context, questions []models.Question) (int, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	Update(ctx context.Context, id string, update bson.M) error
	Delete(ctx context.Context, id string) error
	selection.QuestionBank
}

type QuestionService struct {
	Store QuestionStore
	pool  *selection.PoolManager
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{
		Store: store,
		pool:  selection.NewPoolManager(store),
	}
}

func (s *QuestionService) Create(ctx context.Context, question *models.Question) error {
	if question.Status == "" {
		question.Status = models.QuestionStatusActive
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}
	if err := question.Validate(); err != nil {
		return err
	}
	return s.Store.Create(ctx, question)
}

// BulkImport stores a batch of bank items; one invalid item rejects the
// whole batch before anything is written.
func (s *QuestionService) BulkImport(ctx context.Context, questions []models.Question) (int, error) {
	if len(questions) == 0 {
		return 0, fmt.Errorf("%w: empty import", models.ErrInvalidConfig)
	}
	now := time.Now().UTC()
	for i := range questions {
		if questions[i].Status == "" {
			questions[i].Status = models.QuestionStatusActive
		}
		if questions[i].CreatedAt.IsZero() {
			questions[i].CreatedAt = now
		}
		if err := questions[i].Validate(); err != nil {
			return 0, fmt.Errorf("question %d: %w", i, err)
		}
	}
	return s.Store.CreateMany(ctx, questions)
}

func (s *QuestionService) Get(ctx context.Context, id string) (*models.Question, error) {
	return s.Store.FindByID(ctx, id)
}

// List returns the servable items for a subject, optionally narrowed to
// one knowledge point or difficulty.
func (s *QuestionService) List(ctx context.Context, subjectID, knowledgePointID string, difficulty int) ([]models.Question, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject_id is required", models.ErrInvalidConfig)
	}
	if difficulty != 0 && (difficulty < models.DifficultyMin || difficulty > models.DifficultyMax) {
		return nil, fmt.Errorf("%w: difficulty %d outside %d..%d", models.ErrInvalidConfig, difficulty, models.DifficultyMin, models.DifficultyMax)
	}
	var pointFilter []string
	if knowledgePointID != "" {
		pointFilter = []string{knowledgePointID}
	}
	return s.Store.FetchCandidates(ctx, subjectID, pointFilter, difficulty, nil)
}

func (s *QuestionService) Update(ctx context.Context, id string, patch QuestionPatch) error {
	update, err := patch.toUpdate()
	if err != nil {
		return err
	}
	if len(update) == 0 {
		return fmt.Errorf("%w: empty update", models.ErrInvalidConfig)
	}
	return s.Store.Update(ctx, id, update)
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// PoolInfo reports the remaining pool shape for a subject and whether it
// can sustain a session of the given length.
func (s *QuestionService) PoolInfo(ctx context.Context, subjectID string, required int) (map[string]interface{}, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject_id is required", models.ErrInvalidConfig)
	}
	if required < 1 {
		required = adaptive.DefaultConfig().MaxQuestions
	}
	info, err := s.pool.Distribution(ctx, subjectID, nil)
	if err != nil {
		return nil, err
	}
	sufficient, _, err := s.pool.ValidatePool(ctx, subjectID, required)
	if err != nil {
		return nil, err
	}
	info["required_questions"] = required
	info["sufficient_for_session"] = sufficient
	return info, nil
}

// QuestionPatch lists the editable bank fields; nil means unchanged.
// Subject is fixed at creation so pools stay coherent.
type QuestionPatch struct {
	KnowledgePointID     *string          `json:"knowledge_point_id"`
	Content              *string          `json:"content"`
	Type                 *string          `json:"type"`
	Options              *[]models.Option `json:"options"`
	CorrectAnswer        *string          `json:"correct_answer"`
	Explanation          *string          `json:"explanation"`
	Difficulty           *int             `json:"difficulty"`
	EstimatedTimeSeconds *int             `json:"estimated_time_seconds"`
	Status               *string          `json:"status"`
}

func (p *QuestionPatch) toUpdate() (bson.M, error) {
	update := bson.M{}
	if p.KnowledgePointID != nil {
		if *p.KnowledgePointID == "" {
			return nil, fmt.Errorf("%w: knowledge_point_id must not be empty", models.ErrInvalidConfig)
		}
		update["knowledge_point_id"] = *p.KnowledgePointID
	}
	if p.Content != nil {
		if *p.Content == "" {
			return nil, fmt.Errorf("%w: content must not be empty", models.ErrInvalidConfig)
		}
		update["content"] = *p.Content
	}
	if p.Type != nil {
		update["type"] = *p.Type
	}
	if p.Options != nil {
		update["options"] = *p.Options
	}
	if p.CorrectAnswer != nil {
		update["correct_answer"] = *p.CorrectAnswer
	}
	if p.Explanation != nil {
		update["explanation"] = *p.Explanation
	}
	if p.Difficulty != nil {
		if *p.Difficulty < models.DifficultyMin || *p.Difficulty > models.DifficultyMax {
			return nil, fmt.Errorf("%w: difficulty %d outside %d..%d", models.ErrInvalidConfig, *p.Difficulty, models.DifficultyMin, models.DifficultyMax)
		}
		update["difficulty"] = *p.Difficulty
	}
	if p.EstimatedTimeSeconds != nil {
		if *p.EstimatedTimeSeconds < 0 {
			return nil, fmt.Errorf("%w: estimated_time_seconds must not be negative", models.ErrInvalidConfig)
		}
		update["estimated_time_seconds"] = *p.EstimatedTimeSeconds
	}
	if p.Status != nil {
		if *p.Status != models.QuestionStatusActive && *p.Status != models.QuestionStatusDeleted {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidConfig, *p.Status)
		}
		update["status"] = *p.Status
	}
	return update, nil
}

package repository

import (
	"context"

	"diagnosis-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	res, err := r.Col.InsertOne(ctx, question)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		question.ID = oid.Hex()
	}
	return nil
}

func (r *QuestionRepository) CreateMany(ctx context.Context, questions []models.Question) (int, error) {
	docs := make([]interface{}, 0, len(questions))
	for i := range questions {
		docs = append(docs, questions[i])
	}
	res, err := r.Col.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var question models.Question
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&question)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) Update(ctx context.Context, id string, update bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete marks the question deleted so past responses keep resolving.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$set": bson.M{"status": models.QuestionStatusDeleted}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// FetchCandidates returns servable questions for a subject. Difficulty
// zero matches any difficulty; exclude ids are items already served.
func (r *QuestionRepository) FetchCandidates(ctx context.Context, subjectID string, knowledgePointIDs []string, difficulty int, excludeIDs []string) ([]models.Question, error) {
	filter := bson.M{
		"subject_id": subjectID,
		"status":     bson.M{"$ne": models.QuestionStatusDeleted},
	}
	if difficulty > 0 {
		filter["difficulty"] = difficulty
	}
	if len(knowledgePointIDs) > 0 {
		filter["knowledge_point_id"] = bson.M{"$in": knowledgePointIDs}
	}
	if exclude := objectIDs(excludeIDs); len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var questions []models.Question
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

package repository

import (
	"context"

	"diagnosis-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResponseRepository struct {
	Col *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) *ResponseRepository {
	return &ResponseRepository{Col: db.Collection("question_responses")}
}

func (r *ResponseRepository) Append(ctx context.Context, response *models.QuestionResponse) error {
	res, err := r.Col.InsertOne(ctx, response)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		response.ID = oid.Hex()
	}
	return nil
}

func (r *ResponseRepository) FindBySession(ctx context.Context, sessionID string) ([]models.QuestionResponse, error) {
	opts := options.Find().SetSort(bson.D{{Key: "question_index", Value: 1}})
	return r.find(ctx, bson.M{"session_id": sessionID}, opts)
}

func (r *ResponseRepository) FindByReport(ctx context.Context, reportID string) ([]models.QuestionResponse, error) {
	opts := options.Find().SetSort(bson.D{{Key: "answered_at", Value: 1}})
	return r.find(ctx, bson.M{"report_id": reportID}, opts)
}

func (r *ResponseRepository) DeleteByReport(ctx context.Context, reportID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"report_id": reportID})
	return err
}

func (r *ResponseRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.QuestionResponse, error) {
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var responses []models.QuestionResponse
	for cur.Next(ctx) {
		var response models.QuestionResponse
		if err := cur.Decode(&response); err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

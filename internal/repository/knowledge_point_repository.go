package repository

import (
	"context"

	"diagnosis-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// KnowledgePointRepository reads the shared knowledge point collection.
// Another service owns writes; this side never mutates it.
type KnowledgePointRepository struct {
	Col *mongo.Collection
}

func NewKnowledgePointRepository(db *mongo.Database) *KnowledgePointRepository {
	return &KnowledgePointRepository{Col: db.Collection("knowledge_points")}
}

func (r *KnowledgePointRepository) FindBySubject(ctx context.Context, subjectID string) ([]models.KnowledgePoint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{"subject_id": subjectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var points []models.KnowledgePoint
	for cur.Next(ctx) {
		var point models.KnowledgePoint
		if err := cur.Decode(&point); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

// FindByIDs resolves the points that exist; ids with no document are
// silently absent from the result.
func (r *KnowledgePointRepository) FindByIDs(ctx context.Context, ids []string) ([]models.KnowledgePoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": idValues(ids)}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var points []models.KnowledgePoint
	for cur.Next(ctx) {
		var point models.KnowledgePoint
		if err := cur.Decode(&point); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

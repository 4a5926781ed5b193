package repository

import (
	"context"

	"diagnosis-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WeaknessRepository struct {
	Col *mongo.Collection
}

func NewWeaknessRepository(db *mongo.Database) *WeaknessRepository {
	return &WeaknessRepository{Col: db.Collection("weakness_points")}
}

// ReplaceForReport swaps the stored rows for a report wholesale; a
// re-run of synthesis must never leave stale weaknesses behind.
func (r *WeaknessRepository) ReplaceForReport(ctx context.Context, reportID string, points []models.WeaknessPoint) error {
	if _, err := r.Col.DeleteMany(ctx, bson.M{"report_id": reportID}); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(points))
	for i := range points {
		docs = append(docs, points[i])
	}
	_, err := r.Col.InsertMany(ctx, docs)
	return err
}

func (r *WeaknessRepository) FindByReport(ctx context.Context, reportID string) ([]models.WeaknessPoint, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: 1},
		{Key: "mastery_score", Value: 1},
		{Key: "knowledge_point_id", Value: 1},
	})
	cur, err := r.Col.Find(ctx, bson.M{"report_id": reportID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var points []models.WeaknessPoint
	for cur.Next(ctx) {
		var point models.WeaknessPoint
		if err := cur.Decode(&point); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

func (r *WeaknessRepository) DeleteByReport(ctx context.Context, reportID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"report_id": reportID})
	return err
}

package repository

import (
	"context"

	"diagnosis-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReportRepository struct {
	Col *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{Col: db.Collection("diagnosis_reports")}
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.DiagnosisReport, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var report models.DiagnosisReport
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) FindByUser(ctx context.Context, userID string) ([]models.DiagnosisReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var reports []models.DiagnosisReport
	for cur.Next(ctx) {
		var report models.DiagnosisReport
		if err := cur.Decode(&report); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Save inserts the report when it has no id yet, otherwise rewrites the
// stored document in full.
func (r *ReportRepository) Save(ctx context.Context, report *models.DiagnosisReport) error {
	if report.ID == "" {
		res, err := r.Col.InsertOne(ctx, report)
		if err != nil {
			return err
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			report.ID = oid.Hex()
		}
		return nil
	}
	objID, err := primitive.ObjectIDFromHex(report.ID)
	if err != nil {
		return models.ErrNotFound
	}
	update, err := updateDocument(report)
	if err != nil {
		return err
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

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

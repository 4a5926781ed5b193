package repository

import (
	"context"

	"diagnosis-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("diagnosis_sessions")}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.DiagnosisSession, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var session models.DiagnosisSession
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*models.DiagnosisSession, error) {
	var session models.DiagnosisSession
	err := r.Col.FindOne(ctx, bson.M{"session_token": token}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) FindByReport(ctx context.Context, reportID string) ([]models.DiagnosisSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{"report_id": reportID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var sessions []models.DiagnosisSession
	for cur.Next(ctx) {
		var session models.DiagnosisSession
		if err := cur.Decode(&session); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Save inserts the session when it has no id yet, otherwise rewrites the
// stored document in full. The session document is the single source of
// truth for adaptive state, so a full rewrite keeps it consistent.
func (r *SessionRepository) Save(ctx context.Context, session *models.DiagnosisSession) error {
	if session.ID == "" {
		res, err := r.Col.InsertOne(ctx, session)
		if err != nil {
			return err
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			session.ID = oid.Hex()
		}
		return nil
	}
	objID, err := primitive.ObjectIDFromHex(session.ID)
	if err != nil {
		return models.ErrNotFound
	}
	update, err := updateDocument(session)
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

func (r *SessionRepository) DeleteByReport(ctx context.Context, reportID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"report_id": reportID})
	return err
}

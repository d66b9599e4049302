package mongo

import (
	"context"
	"errors"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReportRepository interface {
	// Save upserts by session id.
	Save(ctx context.Context, r *models.InterviewReport) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewReport, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.InterviewReport, error)
}

type reportRepo struct {
	col *mongo.Collection
}

func NewReportRepo(db *mongo.Database) ReportRepository {
	return &reportRepo{col: db.Collection("interview_reports")}
}

func (r *reportRepo) Save(ctx context.Context, rep *models.InterviewReport) error {
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"session_id": rep.SessionID},
		rep,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *reportRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewReport, error) {
	var rep models.InterviewReport
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&rep)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.InterviewReport, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "completed_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InterviewReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

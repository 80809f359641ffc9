package mongo

import (
	"context"
	"time"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type callLogRepo struct {
	col *mongo.Collection
}

func NewCallLogRepo(db *mongo.Database) repositories.CallLogRepository {
	return &callLogRepo{col: db.Collection("call_logs")}
}

func (r *callLogRepo) List(ctx context.Context) ([]models.CallLog, error) {
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.CallLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *callLogRepo) Prepend(ctx context.Context, log *models.CallLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, log)
	return err
}

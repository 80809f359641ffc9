package mongo

import (
	"context"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
	"github.com/yoockh/barta/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type triggerRepo struct {
	col  *mongo.Collection
	meta *mongo.Collection
}

func NewTriggerRepo(db *mongo.Database) repositories.TriggerRepository {
	return &triggerRepo{col: db.Collection("triggers"), meta: db.Collection("kb_meta")}
}

func (r *triggerRepo) List(ctx context.Context) ([]models.Trigger, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Trigger{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *triggerRepo) Insert(ctx context.Context, t *models.Trigger) error {
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *triggerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *triggerRepo) Seed(ctx context.Context, defaults []models.Trigger) error {
	first, err := claimSeed(ctx, r.meta, "triggers")
	if err != nil || !first || len(defaults) == 0 {
		return err
	}
	docs := make([]any, 0, len(defaults))
	for _, d := range defaults {
		docs = append(docs, d)
	}
	_, err = r.col.InsertMany(ctx, docs)
	return err
}

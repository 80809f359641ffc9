package mongo

import (
	"context"
	"errors"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
	"github.com/yoockh/barta/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type taskRepo struct {
	col *mongo.Collection
}

func NewTaskRepo(db *mongo.Database) repositories.TaskRepository {
	return &taskRepo{col: db.Collection("tasks")}
}

// newest batch first; insertion order inside a batch
var taskOrder = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}}

func (r *taskRepo) List(ctx context.Context) ([]models.Task, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(taskOrder))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) Prepend(ctx context.Context, tasks []models.Task, max int) error {
	if len(tasks) > 0 {
		docs := make([]any, 0, len(tasks))
		for _, t := range tasks {
			docs = append(docs, t)
		}
		if _, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
			return err
		}
	}
	if max <= 0 {
		return nil
	}

	// trim everything past max
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().
			SetSort(taskOrder).
			SetSkip(int64(max)).
			SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var stale []bson.M
	if err := cur.All(ctx, &stale); err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	ids := make([]any, 0, len(stale))
	for _, d := range stale {
		ids = append(ids, d["_id"])
	}
	_, err = r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (r *taskRepo) Toggle(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"id": id},
		mongo.Pipeline{{{Key: "$set", Value: bson.M{"completed": bson.M{"$not": "$completed"}}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

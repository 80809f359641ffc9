package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// claimSeed marks collection as initialized and reports whether this call
// was the first to do so.
func claimSeed(ctx context.Context, meta *mongo.Collection, collection string) (bool, error) {
	res, err := meta.UpdateOne(ctx,
		bson.M{"_id": collection},
		bson.M{"$setOnInsert": bson.M{"initialized_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

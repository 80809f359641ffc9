package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uniqID := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetName("uniq_id").SetUnique(true),
	}
	newestFirst := mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("by_timestamp_desc"),
	}

	for _, name := range []string{"templates", "triggers"} {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, uniqID); err != nil {
			return err
		}
	}
	for _, name := range []string{"tasks", "call_logs"} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, []mongo.IndexModel{uniqID, newestFirst}); err != nil {
			return err
		}
	}
	return nil
}

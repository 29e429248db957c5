package history

import (
	"context"
	"fmt"

	"github.com/gogotex/postflow/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the collection MongoRecorder writes to by default.
const CollectionName = "post_history"

// MongoRecorder appends entries to a MongoDB collection.
type MongoRecorder struct {
	col *mongo.Collection
}

func NewMongoRecorder(col *mongo.Collection) *MongoRecorder {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "seq", Value: 1}}}
	if _, err := col.Indexes().CreateOne(context.Background(), idx); err != nil {
		logger.Warnf("history: create index on %s: %v", col.Name(), err)
	}
	return &MongoRecorder{col: col}
}

func (m *MongoRecorder) Record(ctx context.Context, e Entry) error {
	if _, err := m.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (m *MongoRecorder) List(ctx context.Context, postID string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "at", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer cur.Close(ctx)
	out := []Entry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/postflow/internal/post"
	"github.com/gogotex/postflow/pkg/logger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores posts in a MongoDB collection keyed by _id. Updates use
// optimistic concurrency on the version field.
type MongoRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// List sorts by creation time
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: 1}}}
	if _, err := col.Indexes().CreateOne(context.Background(), idxModel); err != nil {
		logger.Warnf("posts: failed to ensure createdAt index: %v", err)
	}
	return &MongoRepo{col: col, now: time.Now}
}

func (m *MongoRepo) Create(ctx context.Context, r *post.Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.State == "" {
		r.State = post.Draft.String()
	}
	r.CreatedAt = m.now().UTC()
	r.UpdatedAt = r.CreatedAt
	r.Version = 1
	if _, err := m.col.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("post %s: %w", r.ID, ErrExists)
		}
		return "", fmt.Errorf("insert post: %w", err)
	}
	return r.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*post.Record, error) {
	var r post.Record
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*post.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*post.Record{}
	for cur.Next(ctx) {
		var r post.Record
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, cur.Err()
}

// Update reads the current version, applies fn and writes back only if no
// other writer bumped the version in between. Lost races are retried.
func (m *MongoRepo) Update(ctx context.Context, id string, fn UpdateFunc) (*post.Record, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		cur, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		next := *cur
		if err := fn(&next); err != nil {
			return nil, err
		}
		next.ID = cur.ID
		next.Version = cur.Version + 1
		next.UpdatedAt = m.now().UTC()

		set := bson.M{
			"title":     next.Title,
			"content":   next.Content,
			"state":     next.State,
			"version":   next.Version,
			"updatedAt": next.UpdatedAt,
		}
		res, err := m.col.UpdateOne(ctx, bson.M{"_id": id, "version": cur.Version}, bson.M{"$set": set})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return &next, nil
		}
		logger.Debugf("posts: version race on %s (attempt %d/%d)", id, attempt, maxUpdateAttempts)
	}
	return nil, ErrConflict
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

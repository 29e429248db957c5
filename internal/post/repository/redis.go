package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/postflow/internal/post"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each post as JSON under "<prefix><id>" and keeps a
// sorted set "<prefix>index" of ids scored by a creation counter for listing.
// Updates run inside WATCH/MULTI so a concurrent write aborts and retries.
type RedisRepository struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRepository creates a Redis-based post repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "post:"
	}
	return &RedisRepository{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisRepository) indexKey() string {
	return r.prefix + "index"
}

func (r *RedisRepository) seqKey() string {
	return r.prefix + "seq"
}

func (r *RedisRepository) Create(ctx context.Context, rec *post.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.State == "" {
		rec.State = post.Draft.String()
	}
	rec.CreatedAt = r.now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	rec.Version = 1
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	ok, err := r.client.SetNX(ctx, r.key(rec.ID), b, 0).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("post %s: %w", rec.ID, ErrExists)
	}
	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return "", err
	}
	if err := r.client.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(seq), Member: rec.ID}).Err(); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*post.Record, error) {
	return r.get(ctx, r.client, id)
}

func (r *RedisRepository) get(ctx context.Context, c redis.Cmdable, id string) (*post.Record, error) {
	b, err := c.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec post.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RedisRepository) List(ctx context.Context) ([]*post.Record, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*post.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// deleted between ZRANGE and GET
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*post.Record, error) {
	key := r.key(id)
	var updated *post.Record
	txf := func(tx *redis.Tx) error {
		cur, err := r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		next := *cur
		if err := fn(&next); err != nil {
			return err
		}
		next.ID = cur.ID
		next.Version = cur.Version + 1
		next.UpdatedAt = r.now().UTC()
		b, err := json.Marshal(&next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		if err == nil {
			updated = &next
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return r.client.ZRem(ctx, r.indexKey(), id).Err()
}

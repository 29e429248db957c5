// Package history keeps the audit trail of lifecycle transitions applied to
// posts.
package history

import (
	"context"
	"time"
)

// Entry is one effective transition of a post. Seq is the post's version
// once the transition committed, so it orders entries of one post the way
// the store applied them even when they are recorded out of order.
type Entry struct {
	PostID string    `json:"postId" bson:"postId"`
	Seq    int64     `json:"seq" bson:"seq"`
	Action string    `json:"action" bson:"action"`
	From   string    `json:"from" bson:"from"`
	To     string    `json:"to" bson:"to"`
	Actor  string    `json:"actor" bson:"actor"`
	At     time.Time `json:"at" bson:"at"`
}

// Recorder stores and lists transition entries. List returns entries for one
// post in Seq order.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, postID string) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(ctx context.Context, e Entry) error { return nil }

func (Nop) List(ctx context.Context, postID string) ([]Entry, error) { return []Entry{}, nil }

package repository

import (
	"context"
	"errors"

	"github.com/gogotex/postflow/internal/post"
)

var (
	ErrNotFound = errors.New("post not found")
	// ErrExists is returned by Create when the record's ID is already taken.
	ErrExists = errors.New("post already exists")
	// ErrConflict is returned when a concurrent writer kept winning and the
	// update could not be applied within the retry budget.
	ErrConflict = errors.New("post update conflict")
)

// maxUpdateAttempts bounds optimistic retries in the Mongo and Redis stores.
const maxUpdateAttempts = 10

// UpdateFunc mutates a record in place. Returning an error aborts the update
// and leaves the stored record untouched.
type UpdateFunc func(r *post.Record) error

// Repository persists post records. Update is the only way to change a stored
// record and is atomic per post: fn always sees the latest committed version
// and no other writer can commit between that read and fn's write.
type Repository interface {
	Create(ctx context.Context, r *post.Record) (string, error)
	Get(ctx context.Context, id string) (*post.Record, error)
	List(ctx context.Context) ([]*post.Record, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*post.Record, error)
	Delete(ctx context.Context, id string) error
}

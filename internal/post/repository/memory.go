package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogotex/postflow/internal/post"
	"github.com/google/uuid"
)

// MemoryRepo is an in-process repository used for development and tests.
// Records are copied on the way in and out so callers never alias the store.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*post.Record
	order []string
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*post.Record), now: time.Now}
}

func (m *MemoryRepo) Create(ctx context.Context, r *post.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.State == "" {
		r.State = post.Draft.String()
	}
	if _, exists := m.store[r.ID]; exists {
		return "", fmt.Errorf("post %s: %w", r.ID, ErrExists)
	}
	r.CreatedAt = m.now().UTC()
	r.UpdatedAt = r.CreatedAt
	r.Version = 1
	m.order = append(m.order, r.ID)
	cp := *r
	m.store[r.ID] = &cp
	return r.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*post.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.store[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, ErrNotFound
}

// List returns records in creation order.
func (m *MemoryRepo) List(ctx context.Context) ([]*post.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*post.Record, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.store[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, fn UpdateFunc) (*post.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := *cur
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.Version = cur.Version + 1
	next.UpdatedAt = m.now().UTC()
	m.store[id] = &next
	out := next
	return &out, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryRecorder keeps entries in process.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: map[string][]Entry{}}
}

func (m *MemoryRecorder) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[e.PostID]
	i := sort.Search(len(list), func(i int) bool { return list[i].Seq > e.Seq })
	list = append(list, Entry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	m.entries[e.PostID] = list
	return nil
}

func (m *MemoryRecorder) List(ctx context.Context, postID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries[postID]))
	copy(out, m.entries[postID])
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"sync"
)

// ErrSnapshotNotFound is returned by SnapshotStore.Load when no snapshot exists for the key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore is a key-value store for serialized session snapshots.
// Clearing an absent key is not an error.
type SnapshotStore interface {
	Save(ctx context.Context, key string, payload []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context, key string) error
}

// MemorySnapshotRepository keeps snapshots in process memory.
type MemorySnapshotRepository struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemorySnapshotRepository creates an empty MemorySnapshotRepository.
func NewMemorySnapshotRepository() *MemorySnapshotRepository {
	return &MemorySnapshotRepository{items: make(map[string][]byte)}
}

func (r *MemorySnapshotRepository) Save(_ context.Context, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = append([]byte(nil), payload...)
	return nil
}

func (r *MemorySnapshotRepository) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payload, ok := r.items[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (r *MemorySnapshotRepository) Clear(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key)
	return nil
}

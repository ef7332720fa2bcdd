package repository

import (
	"context"
	"sync"
)

// MemorySnapshotRepository keeps the encoded snapshot in process memory.
type MemorySnapshotRepository struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemorySnapshotRepository() *MemorySnapshotRepository {
	return &MemorySnapshotRepository{}
}

func (r *MemorySnapshotRepository) Load(ctx context.Context) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data == nil {
		return nil, nil
	}
	return append([]byte(nil), r.data...), nil
}

func (r *MemorySnapshotRepository) Save(ctx context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append([]byte(nil), data...)
	return nil
}

package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

// SnapshotRepository keeps snapshots for the lifetime of the process.
type SnapshotRepository struct {
	mu     sync.RWMutex
	byName map[string]dataset.Snapshot
}

func NewSnapshotRepository(seed ...dataset.Snapshot) *SnapshotRepository {
	byName := make(map[string]dataset.Snapshot, len(seed))
	for _, item := range seed {
		item.Payload = item.Payload.Clone()
		byName[strings.TrimSpace(item.Key)] = item
	}
	return &SnapshotRepository{byName: byName}
}

func (r *SnapshotRepository) Get(_ context.Context, name string) (dataset.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return dataset.Snapshot{}, false, nil
	}
	item.Payload = item.Payload.Clone()
	return item, true, nil
}

func (r *SnapshotRepository) Put(_ context.Context, snapshot dataset.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot.Payload = snapshot.Payload.Clone()
	r.byName[strings.TrimSpace(snapshot.Key)] = snapshot
	return nil
}

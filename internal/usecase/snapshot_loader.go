package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/platform/cache"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
)

// DatasetLoader returns a dataset table, fetching it only when the stored copy is stale.
type DatasetLoader interface {
	Load(ctx context.Context, name string) (dataset.Table, error)
}

type SnapshotLoader struct {
	repo     dataset.Repository
	source   dataset.Source
	policies map[string]cache.Policy
	observer RunObserver
	logger   *logging.Logger
	now      func() time.Time
}

func NewSnapshotLoader(
	repo dataset.Repository,
	source dataset.Source,
	policies map[string]cache.Policy,
	observer RunObserver,
	logger *logging.Logger,
) *SnapshotLoader {
	if observer == nil {
		observer = NewNopObserver()
	}
	if logger == nil {
		logger = logging.Default()
	}

	copied := make(map[string]cache.Policy, len(policies))
	for name, policy := range policies {
		copied[name] = policy
	}

	return &SnapshotLoader{
		repo:     repo,
		source:   source,
		policies: copied,
		observer: observer,
		logger:   logger.Named("loader"),
		now:      time.Now,
	}
}

func (l *SnapshotLoader) Load(ctx context.Context, name string) (dataset.Table, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotLoader.Load")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return dataset.Table{}, fmt.Errorf("%w: dataset name is required", ErrInvalidInput)
	}
	policy, ok := l.policies[name]
	if !ok {
		return dataset.Table{}, fmt.Errorf("%w: no staleness policy for dataset %q", ErrInvalidInput, name)
	}

	outcome := LoadMiss
	now := l.now()
	snapshot, found, err := l.repo.Get(ctx, name)
	switch {
	case err != nil:
		l.logger.WarnContext(ctx, "snapshot unreadable, refetching", "dataset", name, "error", err)
	case !found:
	case !policy.Fresh(snapshot.WrittenAt, now):
		outcome = LoadStale
		l.logger.InfoContext(ctx, "snapshot stale, refetching",
			"dataset", name,
			"age", snapshot.Age(now),
			"policy", policy.String(),
		)
	default:
		if err := snapshot.Payload.Validate(); err != nil {
			l.logger.WarnContext(ctx, "snapshot malformed, refetching", "dataset", name, "error", err)
			break
		}
		l.logger.DebugContext(ctx, "snapshot served from cache",
			"dataset", name,
			"rows", snapshot.Payload.Len(),
			"age", snapshot.Age(now),
			"expires_at", policy.ExpiresAt(snapshot.WrittenAt),
		)
		l.observer.ObserveLoad(name, LoadHit, snapshot.Payload.Len())
		return snapshot.Payload, nil
	}

	table, err := l.source.Fetch(ctx, name)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("%w: fetch %s: %w", ErrSourceUnavailable, name, err)
	}
	if err := table.Validate(); err != nil {
		return dataset.Table{}, fmt.Errorf("%w: %s has unexpected shape: %w", ErrSourceUnavailable, name, err)
	}

	writtenAt := l.now()
	if err := l.repo.Put(ctx, dataset.NewSnapshot(name, table, writtenAt)); err != nil {
		return dataset.Table{}, fmt.Errorf("%w: store snapshot %s: %w", ErrDependencyUnavailable, name, err)
	}

	l.logger.InfoContext(ctx, "snapshot refreshed",
		"dataset", name,
		"outcome", string(outcome),
		"rows", table.Len(),
		"policy", policy.String(),
		"expires_at", policy.ExpiresAt(writtenAt),
	)
	l.observer.ObserveLoad(name, outcome, table.Len())
	return table, nil
}

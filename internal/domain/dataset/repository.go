package dataset

import "context"

// Repository stores the most recent snapshot per dataset name.
type Repository interface {
	Get(ctx context.Context, name string) (Snapshot, bool, error)
	Put(ctx context.Context, snapshot Snapshot) error
}

// Source fetches a fresh copy of a dataset from its upstream provider.
type Source interface {
	Fetch(ctx context.Context, name string) (Table, error)
}

type SourceFunc func(ctx context.Context, name string) (Table, error)

func (f SourceFunc) Fetch(ctx context.Context, name string) (Table, error) {
	return f(ctx, name)
}

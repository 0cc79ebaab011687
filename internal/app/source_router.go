package app

import (
	"context"
	"fmt"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

// routedSource is an external client that serves a fixed set of dataset names.
type routedSource interface {
	dataset.Source
	Handles(name string) bool
}

// sourceRouter sends each fetch to the first client that handles the dataset.
type sourceRouter struct {
	sources []routedSource
}

func newSourceRouter(sources ...routedSource) *sourceRouter {
	out := make([]routedSource, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			out = append(out, s)
		}
	}
	return &sourceRouter{sources: out}
}

func (r *sourceRouter) Fetch(ctx context.Context, name string) (dataset.Table, error) {
	for _, s := range r.sources {
		if s.Handles(name) {
			return s.Fetch(ctx, name)
		}
	}
	return dataset.Table{}, fmt.Errorf("no source configured for dataset %q", name)
}

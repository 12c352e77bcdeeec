package domain

import "context"

// SnapshotSource supplies the full listing set for a store reload.
type SnapshotSource interface {
	Name() string
	Fetch(ctx context.Context) ([]Listing, error)
}

// FacetCache stores facet counts per snapshot version. Get returns ErrCacheMiss on a miss.
type FacetCache interface {
	Get(ctx context.Context, version string) (FacetCounts, error)
	Set(ctx context.Context, version string, counts FacetCounts) error
}

type EventPublisher interface {
	PublishSnapshotLoaded(ctx context.Context, event SnapshotLoaded) error
}

package fetch

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// Registry dispatches Fetch to the fetcher registered for a source kind.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[interfaces.SourceKind]interfaces.SourceFetcher
}

var _ interfaces.SourceFetcher = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[interfaces.SourceKind]interfaces.SourceFetcher{}}
}

// Register binds fetcher to kind, replacing any previous binding.
func (r *Registry) Register(kind interfaces.SourceKind, fetcher interfaces.SourceFetcher) {
	if fetcher == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[kind] = fetcher
}

// Kinds lists the registered source kinds in sorted order.
func (r *Registry) Kinds() []interfaces.SourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]interfaces.SourceKind, 0, len(r.fetchers))
	for kind := range r.fetchers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Fetch implements interfaces.SourceFetcher.
func (r *Registry) Fetch(ctx context.Context, source interfaces.SourceDescriptor) (interfaces.FetchResult, error) {
	r.mu.RLock()
	fetcher, ok := r.fetchers[source.Kind]
	r.mu.RUnlock()
	if !ok {
		return interfaces.FetchResult{}, &seeds.FetchError{Kind: source.Kind, URL: source.URL, Err: ErrUnsupportedKind}
	}
	return fetcher.Fetch(ctx, source)
}

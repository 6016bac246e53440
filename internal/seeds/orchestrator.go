package seeds

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

const defaultConcurrency = 8

// Orchestrator runs plant: fetch, extract, then write assets and documents.
// Plants sharing an Orchestrator also share its identity locks, so concurrent
// runs against the same store never interleave a read-merge-write on one
// identity.
type Orchestrator struct {
	fetcher     interfaces.SourceFetcher
	store       interfaces.DocumentStore
	assets      interfaces.AssetWriter
	logger      interfaces.Logger
	locks       *KeyedMutex
	concurrency int
	now         func() time.Time
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logging sink. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.Ensure(logger)
	}
}

// WithConcurrency bounds how many asset copies and document writes run at
// once. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLocker shares identity locks with other orchestrators writing to the
// same store.
func WithLocker(locks *KeyedMutex) Option {
	return func(o *Orchestrator) {
		if locks != nil {
			o.locks = locks
		}
	}
}

// WithClock overrides time.Now for result timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.now = clock
		}
	}
}

// NewOrchestrator wires the collaborators used by Plant.
func NewOrchestrator(fetcher interfaces.SourceFetcher, store interfaces.DocumentStore, assets interfaces.AssetWriter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		store:       store,
		assets:      assets,
		logger:      logging.NoOp(),
		locks:       NewKeyedMutex(),
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Plant executes one seed run. Failures in fetching or extracting abort
// before anything is written. Write failures do not stop sibling writes and
// nothing already written is rolled back; every failure is joined into the
// returned error and the result lists what did get written.
func (o *Orchestrator) Plant(ctx context.Context, cfg SeedConfig, extractor interfaces.Extractor) (*interfaces.PlantResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := o.now()
	result := &interfaces.PlantResult{
		Seed:      cfg.Name,
		State:     interfaces.PlantStateIdle,
		Created:   []string{},
		Merged:    []string{},
		Assets:    []string{},
		StartedAt: started,
	}
	defer func() { result.Duration = o.now().Sub(started) }()

	if err := o.ready(extractor); err != nil {
		return result, err
	}
	if err := cfg.Validate(); err != nil {
		return result, err
	}

	logger := logging.WithSeedContext(o.logger, cfg.Name, "", "plant").WithContext(ctx)
	logger.Info("seeds.plant.start", "source_kind", string(cfg.Source.Kind), "source_url", cfg.Source.URL, "strategy", string(cfg.MergeStrategy))

	result.State = interfaces.PlantStateFetching
	fetched, err := o.fetch(ctx, cfg.Source)
	if err != nil {
		logger.Error("seeds.plant.fetch_failed", "error", err)
		return result, err
	}
	result.Root = fetched.Root

	result.State = interfaces.PlantStateExtracting
	prepared, err := o.extract(ctx, extractor, fetched)
	if err != nil {
		logger.Error("seeds.plant.extract_failed", "error", err)
		return result, err
	}
	logger.Debug("seeds.plant.extracted", "documents", len(prepared.Documents), "assets", len(prepared.Assets))

	result.State = interfaces.PlantStateWriting
	errs := o.write(ctx, cfg, prepared, result, logger)

	slices.Sort(result.Created)
	slices.Sort(result.Merged)
	slices.Sort(result.Assets)
	result.Errors = errs

	if len(errs) > 0 {
		logger.Error("seeds.plant.failed", "error_count", len(errs), "created", len(result.Created), "merged", len(result.Merged))
		return result, errors.Join(errs...)
	}

	result.State = interfaces.PlantStateDone
	logger.Info("seeds.plant.done", "created", len(result.Created), "merged", len(result.Merged), "assets", len(result.Assets))
	return result, nil
}

func (o *Orchestrator) ready(extractor interfaces.Extractor) error {
	switch {
	case o.fetcher == nil:
		return ErrFetcherRequired
	case o.store == nil:
		return ErrStoreRequired
	case o.assets == nil:
		return ErrAssetsRequired
	case extractor == nil:
		return ErrExtractorRequired
	}
	return nil
}

func (o *Orchestrator) fetch(ctx context.Context, source interfaces.SourceDescriptor) (interfaces.FetchResult, error) {
	fetched, err := o.fetcher.Fetch(ctx, source)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return interfaces.FetchResult{}, err
		}
		return interfaces.FetchResult{}, &FetchError{Kind: source.Kind, URL: source.URL, Err: err}
	}
	return fetched, nil
}

func (o *Orchestrator) extract(ctx context.Context, extractor interfaces.Extractor, fetched interfaces.FetchResult) (interfaces.PrepareOutput, error) {
	prepared, err := extractor.Extract(ctx, fetched)
	if err != nil {
		var extractErr *ExtractionError
		if errors.As(err, &extractErr) {
			return interfaces.PrepareOutput{}, err
		}
		return interfaces.PrepareOutput{}, &ExtractionError{Root: fetched.Root, Err: err}
	}
	for i, doc := range prepared.Documents {
		if doc == nil {
			return interfaces.PrepareOutput{}, &ExtractionError{Root: fetched.Root, Err: ErrNilDocument}
		}
		if strings.TrimSpace(doc.Identity) == "" {
			return interfaces.PrepareOutput{}, &ExtractionError{Root: fetched.Root, Err: fmt.Errorf("document %d has no identity", i)}
		}
	}
	return prepared, nil
}

// write fans assets and documents out over a bounded set of goroutines.
func (o *Orchestrator) write(ctx context.Context, cfg SeedConfig, prepared interfaces.PrepareOutput, result *interfaces.PlantResult, logger interfaces.Logger) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		sem  = make(chan struct{}, o.concurrency)
	)

	record := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}

	spawn := func(task func() error) {
		select {
		case <-ctx.Done():
			record(func() { errs = append(errs, ctx.Err()) })
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := task(); err != nil {
				record(func() { errs = append(errs, err) })
			}
		}()
	}

	for _, asset := range prepared.Assets {
		spawn(func() error {
			if err := o.copyAsset(ctx, asset); err != nil {
				logger.Error("seeds.asset.failed", "destination", asset.DestinationPath, "error", err)
				return err
			}
			record(func() { result.Assets = append(result.Assets, asset.DestinationPath) })
			return nil
		})
	}

	for _, doc := range prepared.Documents {
		spawn(func() error {
			merged, err := o.writeDocument(ctx, cfg, doc)
			if err != nil {
				logging.WithSeedContext(logger, "", doc.Identity, "write").Error("seeds.document.failed", "error", err)
				return err
			}
			record(func() {
				if merged {
					result.Merged = append(result.Merged, doc.Identity)
				} else {
					result.Created = append(result.Created, doc.Identity)
				}
			})
			return nil
		})
	}

	wg.Wait()
	return errs
}

func (o *Orchestrator) copyAsset(ctx context.Context, asset interfaces.Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.assets.CopyAsset(ctx, asset.SourcePath, asset.DestinationPath); err != nil {
		var assetErr *AssetWriteError
		if errors.As(err, &assetErr) {
			return err
		}
		return &AssetWriteError{Source: asset.SourcePath, Destination: asset.DestinationPath, Err: err}
	}
	return nil
}

// writeDocument holds the identity lock across lookup, merge and write. It
// reports whether an existing document was merged.
func (o *Orchestrator) writeDocument(ctx context.Context, cfg SeedConfig, incoming *interfaces.Document) (bool, error) {
	unlock := o.locks.Lock(incoming.Identity)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return false, &WriteError{Identity: incoming.Identity, Err: err}
	}

	existing, err := o.store.FindByIdentity(ctx, incoming.Identity)
	if err != nil {
		return false, &WriteError{Identity: incoming.Identity, Err: err}
	}

	var doc *interfaces.Document
	if existing == nil {
		doc, err = Prepare(incoming, cfg.Provenance)
	} else {
		doc, err = Merge(existing, incoming, cfg.MergeStrategy, cfg.Provenance)
	}
	if err != nil {
		return false, err
	}

	if err := ValidateSources(doc.CustomFields); err != nil {
		return false, &WriteError{Identity: doc.Identity, Err: err}
	}
	if err := o.store.WriteDocument(ctx, doc); err != nil {
		var writeErr *WriteError
		if errors.As(err, &writeErr) {
			return false, err
		}
		return false, &WriteError{Identity: doc.Identity, Err: err}
	}
	return existing != nil, nil
}

package seeds

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-seeds/pkg/interfaces"
)

var (
	ErrFetch                = errors.New("seeds: fetch failed")
	ErrExtraction           = errors.New("seeds: extraction failed")
	ErrIdentityMismatch     = errors.New("seeds: document identity mismatch")
	ErrUnknownMergeStrategy = errors.New("seeds: unknown merge strategy")
	ErrWrite                = errors.New("seeds: document write failed")
	ErrAssetWrite           = errors.New("seeds: asset write failed")

	ErrFetcherRequired   = errors.New("seeds: source fetcher is required")
	ErrStoreRequired     = errors.New("seeds: document store is required")
	ErrAssetsRequired    = errors.New("seeds: asset writer is required")
	ErrExtractorRequired = errors.New("seeds: extractor is required")
	ErrNilDocument       = errors.New("seeds: document is nil")
)

// FetchError reports a source that could not be materialised.
type FetchError struct {
	Kind interfaces.SourceKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("seeds: fetch %s source %q: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ExtractionError reports malformed source content under Root.
type ExtractionError struct {
	Root string
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("seeds: extract %s (root %s): %v", e.Path, e.Root, e.Err)
	}
	return fmt.Sprintf("seeds: extract root %s: %v", e.Root, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// IdentityMismatchError reports a merge attempted across two identities.
type IdentityMismatchError struct {
	Existing string
	Incoming string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("seeds: cannot merge %q into %q: identity mismatch", e.Incoming, e.Existing)
}

func (e *IdentityMismatchError) Is(target error) bool { return target == ErrIdentityMismatch }

// UnknownMergeStrategyError reports a strategy outside the supported set.
type UnknownMergeStrategyError struct {
	Strategy interfaces.MergeStrategy
}

func (e *UnknownMergeStrategyError) Error() string {
	return fmt.Sprintf("seeds: unknown merge strategy %q", string(e.Strategy))
}

func (e *UnknownMergeStrategyError) Is(target error) bool { return target == ErrUnknownMergeStrategy }

// WriteError reports a document the store failed to persist.
type WriteError struct {
	Identity string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("seeds: write document %q: %v", e.Identity, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// AssetWriteError reports an asset copy that failed.
type AssetWriteError struct {
	Source      string
	Destination string
	Err         error
}

func (e *AssetWriteError) Error() string {
	return fmt.Sprintf("seeds: copy asset %s -> %s: %v", e.Source, e.Destination, e.Err)
}

func (e *AssetWriteError) Unwrap() error { return e.Err }

func (e *AssetWriteError) Is(target error) bool { return target == ErrAssetWrite }

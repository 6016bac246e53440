package interfaces

import (
	"context"
	"time"
)

// SourceKind names the transport used to materialise a seed source locally.
type SourceKind string

const (
	// SourceKindGit clones a remote git repository.
	SourceKindGit SourceKind = "git"
	// SourceKindLocal reads an existing directory without copying it.
	SourceKindLocal SourceKind = "local"
)

// SourceDescriptor identifies where seed content originates.
type SourceDescriptor struct {
	Kind   SourceKind `json:"kind" toml:"kind"`
	URL    string     `json:"url" toml:"url"`
	Branch string     `json:"branch,omitempty" toml:"branch"`
}

// MergeStrategy selects how an incoming document body is combined with an
// existing document of the same identity.
type MergeStrategy string

const (
	MergeInsertAtTop    MergeStrategy = "insertAtTop"
	MergeAppendToBottom MergeStrategy = "appendToBottom"
	MergeReplace        MergeStrategy = "replace"
)

// DefaultMergeStrategy is applied when a seed does not configure one.
const DefaultMergeStrategy = MergeAppendToBottom

// ProvenanceRecord identifies the external source that contributed content to
// a document. Records are deduplicated by URL.
type ProvenanceRecord struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	URL     string `json:"url" yaml:"url" toml:"url"`
	License string `json:"license,omitempty" yaml:"license,omitempty" toml:"license"`
}

// SourcesField is the custom field key holding a document's provenance list.
const SourcesField = "sources"

// Document is the unit stored in a destination document store. Identity is
// the merge key: two documents with the same identity are the same logical
// document.
type Document struct {
	Identity     string         `json:"identity"`
	Body         string         `json:"body"`
	CustomFields map[string]any `json:"custom,omitempty"`
}

// Asset is an opaque file copied into the destination store's asset area.
type Asset struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
}

// PrepareOutput is the extractor's sole output.
type PrepareOutput struct {
	Documents []*Document `json:"documents"`
	Assets    []Asset     `json:"assets"`
}

// FetchResult describes where a fetched source was materialised.
type FetchResult struct {
	Root string `json:"root"`
}

// SourceFetcher materialises a source at a local path.
type SourceFetcher interface {
	Fetch(ctx context.Context, source SourceDescriptor) (FetchResult, error)
}

// Extractor turns fetched source content into candidate documents and assets.
type Extractor interface {
	Extract(ctx context.Context, fetched FetchResult) (PrepareOutput, error)
}

// ExtractorFunc adapts a function into an Extractor.
type ExtractorFunc func(ctx context.Context, fetched FetchResult) (PrepareOutput, error)

// Extract satisfies Extractor.
func (fn ExtractorFunc) Extract(ctx context.Context, fetched FetchResult) (PrepareOutput, error) {
	return fn(ctx, fetched)
}

// DocumentStore is the destination store's read/write contract. FindByIdentity
// returns (nil, nil) when no document with the identity exists.
type DocumentStore interface {
	FindByIdentity(ctx context.Context, identity string) (*Document, error)
	WriteDocument(ctx context.Context, doc *Document) error
}

// AssetWriter copies asset files into the destination store's asset area.
// DestinationPath is relative to that area.
type AssetWriter interface {
	CopyAsset(ctx context.Context, sourcePath, destinationPath string) error
}

// PlantState tracks orchestrator progress through a single plant run.
type PlantState string

const (
	PlantStateIdle       PlantState = "idle"
	PlantStateFetching   PlantState = "fetching"
	PlantStateExtracting PlantState = "extracting"
	PlantStateWriting    PlantState = "writing"
	PlantStateDone       PlantState = "done"
)

// PlantResult reports the outcome of a plant run. When the run fails in the
// writing state the result still lists the items that were written.
type PlantResult struct {
	Seed      string        `json:"seed,omitempty"`
	Root      string        `json:"root,omitempty"`
	State     PlantState    `json:"state"`
	Created   []string      `json:"created"`
	Merged    []string      `json:"merged"`
	Assets    []string      `json:"assets"`
	Errors    []error       `json:"-"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-seeds/internal/identity"
	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// documentCacheNamespace is the key namespace the repository cache derives
// from DocumentRecord.
const documentCacheNamespace = "document_record"

// DocumentRecord is the row stored for each planted document.
type DocumentRecord struct {
	bun.BaseModel `bun:"table:seed_documents,alias:sd"`

	ID           uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Identity     string         `bun:"identity,notnull,unique" json:"identity"`
	Body         string         `bun:"body" json:"body"`
	CustomFields map[string]any `bun:"custom_fields,type:jsonb" json:"custom_fields,omitempty"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewDocumentRepository creates a repository keyed by document identity.
func NewDocumentRepository(db *bun.DB) repository.Repository[*DocumentRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*DocumentRecord]{
		NewRecord: func() *DocumentRecord { return &DocumentRecord{} },
		GetID: func(record *DocumentRecord) uuid.UUID {
			return record.ID
		},
		SetID: func(record *DocumentRecord, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "identity"
		},
		GetIdentifierValue: func(record *DocumentRecord) string {
			return record.Identity
		},
	})
}

// BunOption customises a BunDocumentStore.
type BunOption func(*BunDocumentStore)

// WithBunLogger sets the logger used for write events.
func WithBunLogger(logger interfaces.Logger) BunOption {
	return func(s *BunDocumentStore) {
		s.logger = logging.Ensure(logger)
	}
}

// WithCache puts a repository cache in front of List and Lookup.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) BunOption {
	return func(s *BunDocumentStore) {
		s.cacheService = service
		s.serializer = serializer
	}
}

// WithBunClock overrides time.Now for record timestamps.
func WithBunClock(now func() time.Time) BunOption {
	return func(s *BunDocumentStore) {
		if now != nil {
			s.now = now
		}
	}
}

// BunDocumentStore keeps documents in the seed_documents table. Lookups made
// on the merge path always hit the database; the optional cache only serves
// List and Lookup.
type BunDocumentStore struct {
	db           *bun.DB
	repo         repository.Repository[*DocumentRecord]
	cached       repository.Repository[*DocumentRecord]
	cacheService cache.CacheService
	serializer   cache.KeySerializer
	logger       interfaces.Logger
	now          func() time.Time
}

var _ interfaces.DocumentStore = (*BunDocumentStore)(nil)

// NewBunDocumentStore wraps db.
func NewBunDocumentStore(db *bun.DB, opts ...BunOption) (*BunDocumentStore, error) {
	if db == nil {
		return nil, ErrDatabaseRequired
	}
	s := &BunDocumentStore{
		db:     db,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.repo = NewDocumentRepository(db)
	s.cached = s.repo
	if s.cacheService != nil && s.serializer != nil {
		s.cached = repositorycache.New(s.repo, s.cacheService, s.serializer)
	} else {
		s.cacheService = nil
	}
	return s, nil
}

// EnsureSchema creates the documents table when missing.
func (s *BunDocumentStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*DocumentRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("store: create seed_documents: %w", err)
	}
	return nil
}

// FindByIdentity returns nil, nil when no row exists for identity.
func (s *BunDocumentStore) FindByIdentity(ctx context.Context, identity string) (*interfaces.Document, error) {
	record, err := s.repo.GetByIdentifier(ctx, strings.TrimSpace(identity))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: find %q: %w", identity, err)
	}
	return recordToDocument(record), nil
}

// Lookup is FindByIdentity through the cache when one is configured.
func (s *BunDocumentStore) Lookup(ctx context.Context, identity string) (*interfaces.Document, error) {
	record, err := s.cached.GetByIdentifier(ctx, strings.TrimSpace(identity))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: lookup %q: %w", identity, err)
	}
	return recordToDocument(record), nil
}

// List returns every stored document.
func (s *BunDocumentStore) List(ctx context.Context) ([]*interfaces.Document, error) {
	records, _, err := s.cached.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	out := make([]*interfaces.Document, 0, len(records))
	for _, record := range records {
		out = append(out, recordToDocument(record))
	}
	return out, nil
}

// WriteDocument inserts or updates the row for doc.Identity.
func (s *BunDocumentStore) WriteDocument(ctx context.Context, doc *interfaces.Document) error {
	if doc == nil {
		return errors.New("store: document is nil")
	}
	key := strings.TrimSpace(doc.Identity)
	if key == "" {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, doc.Identity)
	}

	now := s.now().UTC()
	record := &DocumentRecord{
		ID:           identity.DocumentUUID(key),
		Identity:     key,
		Body:         doc.Body,
		CustomFields: maps.Clone(doc.CustomFields),
		UpdatedAt:    now,
	}

	existing, err := s.repo.GetByIdentifier(ctx, key)
	switch {
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		if _, err := s.cached.Update(ctx, record); err != nil {
			return fmt.Errorf("store: update %q: %w", key, err)
		}
	case isNotFound(err):
		record.CreatedAt = now
		if _, err := s.cached.Create(ctx, record); err != nil {
			return fmt.Errorf("store: create %q: %w", key, err)
		}
	default:
		return fmt.Errorf("store: find %q: %w", key, err)
	}

	if err := s.InvalidateCache(ctx); err != nil {
		s.logger.Warn("seeds.store.cache_invalidate_failed", "identity", key, "error", err)
	}
	s.logger.Debug("seeds.store.document_written", "identity", key)
	return nil
}

// InvalidateCache drops every cached document read, including List pages
// the decorator's own write invalidation does not reach.
func (s *BunDocumentStore) InvalidateCache(ctx context.Context) error {
	if s.cacheService == nil {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, documentCacheNamespace+cache.KeySeparator)
}

func isNotFound(err error) bool {
	return goerrors.IsCategory(err, repository.CategoryDatabaseNotFound)
}

func recordToDocument(record *DocumentRecord) *interfaces.Document {
	if record == nil {
		return nil
	}
	fields := maps.Clone(record.CustomFields)
	if fields == nil {
		fields = map[string]any{}
	}
	return &interfaces.Document{
		Identity:     record.Identity,
		Body:         record.Body,
		CustomFields: fields,
	}
}

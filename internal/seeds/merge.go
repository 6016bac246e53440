package seeds

import (
	"maps"

	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// BodySeparator joins two bodies during a merge: one blank line.
const BodySeparator = "\n\n"

// Merge combines incoming into existing according to strategy and records
// provenance. Neither argument is modified; the returned document owns its
// CustomFields map and sources slice. Only Body and the sources field differ
// from existing.
func Merge(existing, incoming *interfaces.Document, strategy interfaces.MergeStrategy, provenance interfaces.ProvenanceRecord) (*interfaces.Document, error) {
	if existing == nil || incoming == nil {
		return nil, ErrNilDocument
	}
	if existing.Identity != incoming.Identity {
		return nil, &IdentityMismatchError{Existing: existing.Identity, Incoming: incoming.Identity}
	}

	body, err := mergeBody(existing.Body, incoming.Body, strategy)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		Identity:     existing.Identity,
		Body:         body,
		CustomFields: AppendProvenance(existing.CustomFields, provenance),
	}, nil
}

func mergeBody(existing, incoming string, strategy interfaces.MergeStrategy) (string, error) {
	switch strategy {
	case interfaces.MergeInsertAtTop:
		return incoming + BodySeparator + existing, nil
	case interfaces.MergeAppendToBottom:
		return existing + BodySeparator + incoming, nil
	case interfaces.MergeReplace:
		return incoming, nil
	default:
		return "", &UnknownMergeStrategyError{Strategy: strategy}
	}
}

// Prepare readies a document with no stored counterpart: it is copied and its
// sources list gains provenance unless an entry with that URL exists.
func Prepare(incoming *interfaces.Document, provenance interfaces.ProvenanceRecord) (*interfaces.Document, error) {
	if incoming == nil {
		return nil, ErrNilDocument
	}
	return &interfaces.Document{
		Identity:     incoming.Identity,
		Body:         incoming.Body,
		CustomFields: AppendProvenance(incoming.CustomFields, provenance),
	}, nil
}

// CloneDocument returns a shallow copy of doc with its own CustomFields map.
func CloneDocument(doc *interfaces.Document) *interfaces.Document {
	if doc == nil {
		return nil
	}
	return &interfaces.Document{
		Identity:     doc.Identity,
		Body:         doc.Body,
		CustomFields: maps.Clone(doc.CustomFields),
	}
}

package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a document key does not exist.
var ErrNotFound = errors.New("document not found")

// DocStore is a keyed JSON document store. UpsertField and DeleteField
// mutate a single path inside the document atomically, so concurrent
// writers to different paths of the same document never clobber each
// other; last-writer-wins applies per path, not per document.
type DocStore interface {
	// Get unmarshals the document at key into out.
	Get(ctx context.Context, key string, out any) error
	// Upsert replaces (or creates) the whole document.
	Upsert(ctx context.Context, key string, doc any) error
	// UpsertField sets the value at path inside an existing document,
	// creating intermediate objects as needed.
	UpsertField(ctx context.Context, key string, path []string, value any) error
	// DeleteField removes the value at path; missing paths are a no-op.
	DeleteField(ctx context.Context, key string, path []string) error
	// ListPrefix returns the raw documents whose keys begin with prefix.
	ListPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
}

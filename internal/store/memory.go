package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryDocStore is a map-backed DocStore for development and tests.
// A single mutex gives the same per-statement atomicity the Postgres
// backend provides.
type MemoryDocStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

// NewMemoryDocStore creates an empty in-memory store.
func NewMemoryDocStore() *MemoryDocStore {
	return &MemoryDocStore{docs: make(map[string]json.RawMessage)}
}

// Get unmarshals the document at key into out.
func (s *MemoryDocStore) Get(_ context.Context, key string, out any) error {
	s.mu.Lock()
	raw, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

// Upsert replaces or creates the whole document.
func (s *MemoryDocStore) Upsert(_ context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[key] = raw
	s.mu.Unlock()
	return nil
}

// UpsertField sets one path inside an existing document.
func (s *MemoryDocStore) UpsertField(_ context.Context, key string, path []string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[key]
	if !ok {
		return ErrNotFound
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(encoded, &v); err != nil {
		return err
	}
	setPath(doc, path, v)
	updated, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.docs[key] = updated
	return nil
}

// DeleteField removes one path; missing paths are a no-op.
func (s *MemoryDocStore) DeleteField(_ context.Context, key string, path []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[key]
	if !ok {
		return ErrNotFound
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	deletePath(doc, path)
	updated, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.docs[key] = updated
	return nil
}

// ListPrefix returns raw documents for keys beginning with prefix.
func (s *MemoryDocStore) ListPrefix(_ context.Context, prefix string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		cp := make(json.RawMessage, len(s.docs[k]))
		copy(cp, s.docs[k])
		out = append(out, cp)
	}
	return out, nil
}

func setPath(doc map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := doc[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			doc[p] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = value
}

func deletePath(doc map[string]any, path []string) {
	for _, p := range path[:len(path)-1] {
		next, ok := doc[p].(map[string]any)
		if !ok {
			return
		}
		doc = next
	}
	delete(doc, path[len(path)-1])
}

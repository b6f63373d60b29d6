package docstore

import (
	"context"
	"sync"

	apperrors "github.com/grovetools/areatrip/errors"
)

// MemoryStore keeps documents in process. It backs tests and the
// "memory" backend.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	newID       func() string
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithIDGenerator replaces the id allocator.
func WithIDGenerator(fn func() string) MemoryOption {
	return func(s *MemoryStore) {
		s.newID = fn
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]map[string][]byte),
		newID:       newID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) NewID(collection string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newID()
}

func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := requireCollection(collection); err != nil {
		return "", err
	}
	doc, err := encode(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.collection(collection)[id] = doc
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := requireRef(collection, id); err != nil {
		return err
	}
	patch, err := normalize(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collection(collection)
	raw, ok := docs[id]
	if !ok {
		return apperrors.DocumentNotFound(collection, id)
	}
	existing, err := decode(raw)
	if err != nil {
		return err
	}
	merged, err := encode(merge(existing, patch))
	if err != nil {
		return err
	}
	docs[id] = merged
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := requireRef(collection, id); err != nil {
		return err
	}
	doc, err := encode(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = doc
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if err := requireRef(collection, id); err != nil {
		return Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.collections[collection][id]
	if !ok {
		return Snapshot{}, apperrors.DocumentNotFound(collection, id)
	}
	doc, err := decode(raw)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: id, Data: doc}, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := requireCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.collections[collection]
	out := make([]Snapshot, 0, len(docs))
	for id, raw := range docs {
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{ID: id, Data: doc})
	}
	sortSnapshots(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// collection returns the document map, creating it. Callers hold mu.
func (s *MemoryStore) collection(name string) map[string][]byte {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[name] = docs
	}
	return docs
}

package docstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"
	apperrors "github.com/grovetools/areatrip/errors"
)

// DiskvStore keeps one JSON file per document under BasePath, one directory
// per collection.
type DiskvStore struct {
	d     *diskv.Diskv
	newID func() string

	// mu guards read-merge-write in Update.
	mu sync.Mutex
}

// OpenDiskv creates a store rooted at basePath.
func OpenDiskv(basePath string) (*DiskvStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &DiskvStore{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      1024 * 1024,
		}),
		newID: newID,
	}, nil
}

// Keys are hex(collection)-hex(id) so neither part can contain the
// separator or a path element.
func toKey(collection, id string) string {
	return hex.EncodeToString([]byte(collection)) + "-" + hex.EncodeToString([]byte(id))
}

func fromKey(key string) (collection, id string, ok bool) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	c, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", "", false
	}
	i, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", "", false
	}
	return string(c), string(i), true
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pathKey *diskv.PathKey) string {
	return strings.Join(pathKey.Path, "-") + "-" + pathKey.FileName
}

func (s *DiskvStore) NewID(collection string) string {
	return s.newID()
}

func (s *DiskvStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := requireCollection(collection); err != nil {
		return "", err
	}
	raw, err := encode(data)
	if err != nil {
		return "", err
	}
	id := s.newID()
	if err := s.d.Write(toKey(collection, id), raw); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return id, nil
}

func (s *DiskvStore) Update(ctx context.Context, collection, id string, data map[string]interface{}) error {
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

	key := toKey(collection, id)
	if !s.d.Has(key) {
		return apperrors.DocumentNotFound(collection, id)
	}
	current, err := s.d.Read(key)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	existing, err := decode(current)
	if err != nil {
		return err
	}
	raw, err := encode(merge(existing, patch))
	if err != nil {
		return err
	}
	if err := s.d.Write(key, raw); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (s *DiskvStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := requireRef(collection, id); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.d.Write(toKey(collection, id), raw); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (s *DiskvStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if err := requireRef(collection, id); err != nil {
		return Snapshot{}, err
	}
	key := toKey(collection, id)
	if !s.d.Has(key) {
		return Snapshot{}, apperrors.DocumentNotFound(collection, id)
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read document: %w", err)
	}
	doc, err := decode(raw)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: id, Data: doc}, nil
}

func (s *DiskvStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := requireCollection(collection); err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0)
	for key := range s.d.Keys(ctx.Done()) {
		c, id, ok := fromKey(key)
		if !ok || c != collection {
			continue
		}
		raw, err := s.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", id, err)
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{ID: id, Data: doc})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sortSnapshots(out)
	return out, nil
}

func (s *DiskvStore) Close() error {
	return nil
}

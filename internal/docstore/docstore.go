// Package docstore is the remote document store the trip service writes to.
// Documents are flat JSON objects grouped into collections such as
// users/{uid}/trips; ids are assigned by the store.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/grovetools/areatrip/errors"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendDiskv  = "diskv"
)

// idLength matches the length of ids handed out by hosted document stores.
const idLength = 20

// Snapshot is one stored document.
type Snapshot struct {
	ID   string
	Data map[string]interface{}
}

// Store is the document store contract every backend satisfies.
type Store interface {
	// Add creates a document with a store-assigned id and returns the id.
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)

	// Update merges data into an existing document. It fails with
	// DOCUMENT_NOT_FOUND when the document does not exist.
	Update(ctx context.Context, collection, id string, data map[string]interface{}) error

	// NewID allocates an id without writing anything.
	NewID(collection string) string

	// Set creates or replaces the document at id.
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error

	// Get returns one document or DOCUMENT_NOT_FOUND.
	Get(ctx context.Context, collection, id string) (Snapshot, error)

	// List returns every document of the collection ordered by id.
	List(ctx context.Context, collection string) ([]Snapshot, error)

	Close() error
}

// UserTrips returns the trips collection of a user.
func UserTrips(uid string) string {
	return "users/" + uid + "/trips"
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}

func encode(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

// normalize round-trips data through JSON so every backend hands back the
// same value types (float64 numbers, []interface{} arrays, nested maps).
func normalize(data map[string]interface{}) (map[string]interface{}, error) {
	raw, err := encode(data)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func decode(raw []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func merge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func requireCollection(collection string) error {
	if strings.TrimSpace(collection) == "" {
		return apperrors.InvalidArgument("collection", "is required")
	}
	return nil
}

func requireRef(collection, id string) error {
	if err := requireCollection(collection); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return apperrors.InvalidArgument("id", "is required")
	}
	return nil
}

func sortSnapshots(snaps []Snapshot) {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
}

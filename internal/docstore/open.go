package docstore

import (
	"context"
	"fmt"
)

// Open creates the store named by backend. path is ignored for the memory
// backend; it is the database file for sqlite and the base directory for
// diskv.
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	case BackendDiskv:
		return OpenDiskv(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

package load

import (
	"context"

	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

// storeBackend adapts *store.Store to the Backend interface (the concrete
// *store.Tx already satisfies Tx; only the Begin signature needs lifting).
type storeBackend struct {
	st *store.Store
}

func (b storeBackend) Begin(ctx context.Context) (Tx, error) {
	return b.st.Begin(ctx)
}

// StoreBackend wraps the SQL store as a load backend.
func StoreBackend(st *store.Store) Backend {
	return storeBackend{st: st}
}

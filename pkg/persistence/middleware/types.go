// Package middleware decorates a session record store with cross-cutting
// persistence behavior. Middlewares compose around any RecordStore
// implementation, so the redis adapter stays oblivious to them.
package middleware

import "github.com/talhaorak/taiga-mcp/pkg/session"

// Middleware allows wrapping a RecordStore to add behavior.
type Middleware func(session.RecordStore) session.RecordStore

// Chain applies middlewares so the first one listed sees calls first.
func Chain(store session.RecordStore, mws ...Middleware) session.RecordStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

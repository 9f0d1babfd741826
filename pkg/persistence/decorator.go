package persistence

import (
	"context"

	"github.com/aretw0/botflow/pkg/ports"
	"github.com/aretw0/botflow/pkg/session"
)

// Decorator wraps a StateStore to add behavior.
type Decorator func(ports.StateStore) ports.StateStore

// Chain applies decorators to store. The first decorator is the outermost.
func Chain(store ports.StateStore, decorators ...Decorator) ports.StateStore {
	for i := len(decorators) - 1; i >= 0; i-- {
		store = decorators[i](store)
	}
	return store
}

// list forwards to next when it can enumerate conversations.
func list(ctx context.Context, next ports.StateStore) ([]string, error) {
	lister, ok := next.(ports.Lister)
	if !ok {
		return nil, session.ErrListNotSupported
	}
	return lister.List(ctx)
}

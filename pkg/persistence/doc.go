// Package persistence holds StateStore decorators.
//
// A Decorator wraps a ports.StateStore and keeps its contract: absent conversations
// still report domain.ErrStateNotFound and List is forwarded when the wrapped store
// implements ports.Lister.
package persistence

/*
Package session coordinates concurrent access to conversation state.

Two events of the same conversation dispatched at the same time both read the stored
state, run, and write it back; the later write wins. Manager closes that window by
holding a per-conversation lock for the whole dispatch: a local mutex for goroutines of
this process plus, optionally, a DistributedLocker for replicas sharing a store.
*/
package session

/*
Package domain contains the core domain models for the botflow router.

It defines the per-event Context that flows through the middleware pipeline, the normalized
inbound Update, the capabilities handler bodies use to act on a conversation (Sender and
StateHandle), the error taxonomy, and the dispatch hooks used for observability. This package
is kept free of I/O and persistence so that every other layer can depend on it.

# Key Entities

  - Update: A platform-neutral inbound event (message or callback query).
  - Context: The per-event value passed to selectors, actions, state bodies and stages.
  - StateHandle: Lets a body move its conversation to another state (Set/Clear).
  - DispatchHooks: Callbacks fired on state entry and action execution.
*/
package domain

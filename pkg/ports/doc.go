/*
Package ports defines the driven ports (interfaces) for the botflow router.

These interfaces decouple the routing core from external implementations, allowing
the router to work with various storage backends, chat platforms and fault reporters.

# Key Interfaces

  - StateStore: Persists the current state name of each conversation.
  - DistributedLocker: Provides distributed locking for concurrent dispatches of one conversation.
  - ContextBuilder: Converts a platform update into the per-event domain.Context.
  - UpdateSource: Feeds inbound updates into a receive loop.
  - ErrorReporter: Receives dispatch failures that escaped the pipeline.
*/
package ports

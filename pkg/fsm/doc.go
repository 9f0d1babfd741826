/*
Package fsm implements the per-conversation state machine.

The Machine owns the registered States and a base-state policy; it owns no conversation
data. The current state of every conversation lives in an external ports.StateStore and
is resolved on each dispatch:

  - a conversation without a stored state is moved to the base state first;
  - a stored name that is no longer registered fails with domain.ErrUnknownState;
  - the resolved state's entry body runs, or its RuleSet when it has no entry body.
*/
package fsm

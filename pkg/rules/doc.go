/*
Package rules implements the selector/action rule engine.

A Selector is a named boolean predicate over a domain.Context. An Action is a named body
gated by the logical OR of one or more selectors. A RuleSet holds the actions of one state
in a fixed order and dispatches an event to them:

  - actions are sorted once, at registration time, by (Order, registration index);
  - evaluation is a single forward pass;
  - after a matched action runs, evaluation stops unless that action continues on match.
*/
package rules

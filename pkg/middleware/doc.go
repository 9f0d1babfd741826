// Package middleware provides the ordered stage chain every event traverses before and
// around routing, together with a set of ready-made stages.
package middleware

// Package compliance derives dashboard aggregates from client compliance records:
// impacted client count, distinct active new regulations, and an overall urgency.
//
// Every function is pure. Inputs are never modified, nothing is retained between
// calls, and the reference date is always supplied by the caller.
package compliance

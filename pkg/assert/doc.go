// Package assert provides stateless process assertions. Each Checker is
// bound explicitly to the engine it queries, so several isolated engines
// can be asserted against in the same test run
package assert

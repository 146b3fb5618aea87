// Package trace carries the human-readable Given/When/Then narrative of a
// running scenario to one or more sinks: plain or styled text, structured
// logs, a Redis list, or an in-memory recorder for tests
package trace

// Package cli implements the bpmspec command line: running and validating
// YAML scenario files against an in-memory or remote Flowable engine
package cli

// Package api defines the contract between scenarios and the process engine
// under test
//
// The engine is an external collaborator: it owns execution, persistence,
// scheduling and history. This package names the operations a scenario needs
// from it (start, correlate, complete, query history, drive jobs and the
// clock, check identities) and the records those operations return
package api

// Package value defines the typed variable values exchanged with a process
// engine
//
// A Value is a tagged union over null, string, number, boolean, date and JSON
// document, mirroring the dynamically typed variable store of an engine while
// keeping comparisons explicit
package value

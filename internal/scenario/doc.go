// Package scenario reads Given/When/Then scenarios from YAML files and runs
// them against an engine
//
//	name: Small invoices are approved automatically
//	given: An invoice below the approval threshold
//	steps:
//	  - start:
//	      process: Invoice
//	      vars: {amount: 500}
//	      collect: [total]
//	  - serviceTask: calculate
//	  - endedExactly: autoApproved
//	  - expect: total < 1000
//
// A file may declare models and users, in which case it runs on a fresh
// in-memory engine of its own
package scenario

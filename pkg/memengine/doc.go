// Package memengine is an in-memory process engine for exercising scenarios
// without a running BPM server. Process definitions are built with the
// fluent Model builder and executed node by node; user tasks, timers,
// message catches, call activities and asynchronous service tasks park the
// instance until the matching engine operation resumes it
package memengine

import "github.com/kode4food/bpmspec/pkg/api"

var _ api.Engine = (*Engine)(nil)

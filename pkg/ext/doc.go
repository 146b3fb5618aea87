// Package ext provides ready-made extension actions for scenarios. Each
// constructor returns a spec.Action to pass to ThenExtension
//
//	s.ThenProcessIsComplete().
//		ThenExtension(ext.Expect(`total > 1000 && approved`)).
//		ThenExtension(ext.DumpAuditTrail(nil))
package ext

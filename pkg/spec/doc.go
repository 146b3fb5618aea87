// Package spec builds behaviour-driven acceptance scenarios for business
// processes. A Scenario reads as a Given/When/Then script:
//
//	spec.New(eng, "Example1 happy path", spec.WithT(t)).
//		Given("No particular pre-conditions").
//		WhenEventOccurs("The Example1 process is started", "Example1",
//			spec.Set(), spec.Vars()).
//		ThenUserTask("doSomething", spec.Set(), spec.Vars()).
//		ThenProcessIsComplete()
//
// Each step performs one engine interaction or assertion and traces a
// readable phrase. The first failure aborts the rest of the chain
package spec

// Package flowable adapts a Flowable engine's REST API to api.Engine, so
// scenarios can run against a deployed engine
//
// Message correlation, task completion and job execution use the REST
// action resources. The engine clock cannot be read or moved over REST, so
// Now and SetClock report api.ErrUnsupported
package flowable

// Package fakerest serves an in-memory engine over the Flowable REST API
// so the flowable client can be tested without a deployed engine
package fakerest

// Package workflow runs the worker pool that drains vibe2apk's queue.
//
// Pool starts a fixed number of goroutines, each looping: claim the next
// waiting task, look up the stage.Handler for its Kind, Prepare and Execute
// the build while relaying progress reports back to the queue as both a
// status update and a lease renewal, then record the terminal outcome with
// Store.Complete or Store.Fail. A second goroutine periodically reclaims
// tasks whose lease expired without a heartbeat, so a crashed worker's task
// is marked failed rather than stuck active forever.
package workflow

// Package suggest turns editor input into debounced, versioned suggestion
// requests and owns the lifecycle of the single inline suggestion shown next
// to the caret.
//
// Every method is meant to run on the host's update loop. Timers and channel
// traffic come back as messages, so the request version and overlay state
// have exactly one owner and need no locking.
package suggest

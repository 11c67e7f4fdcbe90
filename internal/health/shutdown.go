package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the global readiness gate. The server flips it off at the
// start of a graceful shutdown so load balancers drain traffic before the
// listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// Ready reports the current state of the readiness gate.
func Ready() bool {
	return ready.Load()
}

// Package csp implements a small Communicating Sequential Processes
// runtime atop the Go scheduler: lightweight processes that communicate
// exclusively through synchronous, optionally buffered, byte-oriented
// channels.
//
// A Channel is not a Go chan. It is a two-party, length-prefixed byte
// conduit modeled on the channel engine of a preemptive embedded kernel:
// every message crosses a ring buffer, unbuffered channels rendezvous
// explicitly before any byte moves, and closing a channel wakes whatever
// party is parked on it. Processes are goroutines wrapped in a Context
// that preserves their return value after they exit, retrievable with
// Ret.
package csp

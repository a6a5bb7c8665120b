package csp

import (
	"sync"

	"github.com/agilira/go-timecache"
)

// clock backs Stats.LastParkedAt with a cached wall-clock read instead
// of a fresh time.Now() syscall on every park, the same trade a
// high-throughput logging pipeline makes on its hot path.
var clock = timecache.NewWithResolution(timecacheResolution)

// waiterPool recycles waiter structs across parks the way the source
// recycles sudog values off a per-P free list, so a busy channel does
// not allocate one waiter struct per blocking call. Each park still
// makes a fresh wake channel, since a closed channel cannot be reopened.
var waiterPool = sync.Pool{New: func() any { return new(waiter) }}

func pooledWaiter() *waiter {
	w := waiterPool.Get().(*waiter)
	w.wake = make(chan struct{})
	return w
}

// park blocks the caller until woken (by wake or by Close) or the
// channel closes. It must be called with c.mu held; it releases the
// lock for the duration of the wait and reacquires it before returning,
// the same "unlock, sleep, relock" shape as the source's
// gopark/goparkunlock pair.
func (c *core) park(slot **waiter, isSender bool) {
	w := pooledWaiter()
	*slot = w
	c.recordPark(isSender)
	c.mu.Unlock()
	<-w.wake
	c.mu.Lock()
	waiterPool.Put(w)
}

// wake releases whatever party is parked in *slot, if any. Must be
// called with c.mu held.
func (c *core) wake(slot **waiter) {
	if w := *slot; w != nil {
		*slot = nil
		close(w.wake)
	}
}

// gateSlots returns (my slot, their slot) for the given role: a sender
// parks in readBlocked (it is waiting for a read to free it) and looks
// for a receiver already parked in writeBlocked; a receiver does the
// mirror image. Pointers are into the shared core, not copies, so
// mutations through them are visible to both endpoints.
func (c *core) gateSlots(isSender bool) (mine, other **waiter) {
	if isSender {
		return &c.readBlocked, &c.writeBlocked
	}
	return &c.writeBlocked, &c.readBlocked
}

// gate implements the rendezvous described in the package documentation:
// on an unbuffered channel, a sender and a receiver must meet before any
// bytes move. It returns false if the channel was (or became) closed
// before a rendezvous completed.
func (ch *Channel) gate(isSender bool) bool {
	c := ch.core()
	sched := ch.scheduler()

	c.mu.Lock()
	if c.flags&flagClosed != 0 {
		c.mu.Unlock()
		c.logKind(gateOp(isSender), KindClosed)
		return false
	}
	mine, other := c.gateSlots(isSender)
	if *other != nil {
		c.wake(other)
		c.mu.Unlock()
		sched.Yield()
		return true
	}
	c.park(mine, isSender)
	closed := c.flags&flagClosed != 0
	c.mu.Unlock()
	return !closed
}

// tryGate is the non-blocking variant used from interrupt context: it
// never parks. If a peer is already waiting it completes the rendezvous
// and returns true; otherwise it returns false immediately.
func (ch *Channel) tryGate(isSender bool) bool {
	c := ch.core()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flags&flagClosed != 0 {
		c.logKind(gateOp(isSender), KindClosed)
		return false
	}
	_, other := c.gateSlots(isSender)
	if *other != nil {
		c.wake(other)
		return true
	}
	c.logKind(gateOp(isSender), KindContendedInIRQ)
	return false
}

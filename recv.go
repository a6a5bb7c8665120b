package csp

// Recv blocks until a complete message arrives and copies it into dst,
// or the channel closes, returning the number of bytes received.
//
// Recv(c, nil) is the barrier primitive: it completes the rendezvous
// gate and returns 0 without ever consulting the buffer — to discard
// (rather than synchronize away) the next buffered message, use Drop.
func (ch *Channel) Recv(dst []byte) int {
	c := ch.core()
	rb := c.files[ch.theirs]
	sched := ch.scheduler()

	c.mu.Lock()
	if c.flags&flagClosed != 0 && rb.Empty() {
		c.mu.Unlock()
		c.logKind("recv", KindClosed)
		return 0
	}
	c.mu.Unlock()

	irq := sched.IsInterruptContext()
	if !c.buffered() {
		var ok bool
		if irq {
			ok = ch.tryGate(false)
		} else {
			ok = ch.gate(false)
		}
		if !ok {
			return 0
		}
	}

	if dst == nil {
		return 0
	}

	return ch.drain(dst, false, irq)
}

// Drop discards the next complete message without copying it, gating
// and flow-controlling exactly like Recv. It is a dedicated operation,
// not a Recv(nil) call: Recv(nil) is the zero-byte barrier, Drop is the
// one that actually consumes a message.
func (ch *Channel) Drop() int {
	c := ch.core()
	rb := c.files[ch.theirs]
	sched := ch.scheduler()

	c.mu.Lock()
	if c.flags&flagClosed != 0 && rb.Empty() {
		c.mu.Unlock()
		c.logKind("drop", KindClosed)
		return 0
	}
	c.mu.Unlock()

	irq := sched.IsInterruptContext()
	if !c.buffered() {
		var ok bool
		if irq {
			// Drop gates with the receiver's role, same as Recv. The
			// source's channel_drop gates with the creator role
			// inverted, a bug; this port shares Recv's correct gate
			// call instead of reproducing it.
			ok = ch.tryGate(false)
		} else {
			ok = ch.gate(false)
		}
		if !ok {
			return 0
		}
	}

	return ch.drain(nil, true, irq)
}

// drain implements the shared payload-loop logic behind both Recv and
// Drop, so the two can never drift the way the source's recv/drop pair
// did. Every return path unlocks c.mu explicitly rather than via defer,
// matching the source's tight hot-path style and making each unlock
// visibly paired with the branch that needs it.
func (ch *Channel) drain(dst []byte, discard bool, irq bool) int {
	c := ch.core()
	rb := c.files[ch.theirs]
	sched := ch.scheduler()

	c.mu.Lock()

	op := "recv"
	if discard {
		op = "drop"
	}

	var hdr [lenPrefixSize]byte
	for rb.Peek(hdr[:]) != lenPrefixSize {
		if c.flags&flagClosed != 0 {
			c.mu.Unlock()
			c.logKind(op, KindClosed)
			return 0
		}
		if irq {
			c.mu.Unlock()
			c.logKind(op, KindContendedInIRQ)
			return 0
		}
		c.park(&c.writeBlocked, false)
	}
	rb.Drop(lenPrefixSize)
	size := getLen(hdr[:])

	got := 0
	for {
		if c.flags&flagClosed != 0 && (rb.Empty() || size-got > rb.Buffered()) {
			ok := got == size
			c.mu.Unlock()
			if ok {
				return got
			}
			c.logKind(op, KindShortTail)
			return 0
		}
		if !rb.Empty() {
			remaining := size - got
			var chunk int
			if discard || got >= len(dst) {
				chunk = rb.Drop(remaining)
			} else {
				room := dst[got:]
				if len(room) > remaining {
					room = room[:remaining]
				}
				chunk = rb.Get(room)
			}
			if chunk > 0 {
				got += chunk
				c.wake(&c.readBlocked)
				c.mu.Unlock()
				sched.Yield()
				if got == size {
					return got
				}
				c.mu.Lock()
				continue
			}
		}
		if irq {
			c.mu.Unlock()
			c.logKind(op, KindContendedInIRQ)
			return 0
		}
		c.park(&c.writeBlocked, false)
	}
}

// TryRecv attempts a non-blocking, non-synchronizing receive: a
// complete message (length prefix and payload together) must already be
// available, or nothing is consumed and TryRecv returns 0.
func (ch *Channel) TryRecv(dst []byte) int {
	c := ch.core()
	c.mu.Lock()
	defer c.mu.Unlock()

	rb := c.files[ch.theirs]
	var hdr [lenPrefixSize]byte
	if rb.Peek(hdr[:]) != lenPrefixSize {
		return 0
	}
	size := getLen(hdr[:])
	if rb.Buffered() < lenPrefixSize+size {
		return 0
	}
	rb.Drop(lenPrefixSize)

	room := dst
	if len(room) > size {
		room = room[:size]
	}
	got := rb.Get(room)
	if size > got {
		rb.Drop(size - got)
	}
	c.wake(&c.readBlocked)
	return size
}

// RecvPtr wraps Recv: it returns dst on a successful, non-empty receive
// and nil when the receive yielded zero bytes.
func (ch *Channel) RecvPtr(dst []byte) []byte {
	if ch.Recv(dst) == 0 {
		return nil
	}
	return dst
}

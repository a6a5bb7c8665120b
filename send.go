package csp

import (
	"encoding/binary"
)

// lenPrefixSize is the width of the length prefix each message carries
// on the wire within an RB.
const lenPrefixSize = 4

func putLen(b []byte, n int) { binary.LittleEndian.PutUint32(b, uint32(n)) }
func getLen(b []byte) int    { return int(binary.LittleEndian.Uint32(b)) }

// Send transmits n bytes from data, blocking until the full message has
// been handed off or the channel closes. It returns the number of bytes
// actually sent: n on success, or a smaller count (possibly 0) if the
// channel closed mid-transfer.
//
// Send(c, nil, 0) is the barrier primitive: it completes the rendezvous
// gate and returns 0 without moving any bytes.
func (ch *Channel) Send(data []byte, n int) int {
	c := ch.core()
	sched := ch.scheduler()

	if c.isClosed() {
		c.logKind("send", KindClosed)
		return 0
	}

	if !c.buffered() {
		irq := sched.IsInterruptContext()
		var ok bool
		if irq {
			ok = ch.tryGate(true)
		} else {
			ok = ch.gate(true)
		}
		if !ok {
			return 0
		}
	}

	if data == nil || n <= 0 {
		return 0
	}
	if n > len(data) {
		n = len(data)
	}

	return ch.sendPayload(data[:n], sched.IsInterruptContext())
}

func (ch *Channel) sendPayload(data []byte, irq bool) int {
	c := ch.core()
	rb := c.files[ch.mine]
	sched := ch.scheduler()

	c.mu.Lock()
	for rb.Avail() < lenPrefixSize {
		if c.flags&flagClosed != 0 {
			c.mu.Unlock()
			c.logKind("send", KindClosed)
			return 0
		}
		if irq {
			c.mu.Unlock()
			c.logKind("send", KindContendedInIRQ)
			return 0
		}
		c.park(&c.readBlocked, true)
	}
	if c.flags&flagClosed != 0 {
		c.mu.Unlock()
		c.logKind("send", KindClosed)
		return 0
	}
	var hdr [lenPrefixSize]byte
	putLen(hdr[:], len(data))
	rb.Add(hdr[:])

	sent := 0
	for {
		if c.flags&flagClosed != 0 {
			c.mu.Unlock()
			if sent < len(data) {
				c.logKind("send", KindShortTail)
			}
			return sent
		}
		if rb.Avail() > 0 {
			chunk := rb.Add(data[sent:])
			if chunk > 0 {
				sent += chunk
				c.wake(&c.writeBlocked)
				c.mu.Unlock()
				sched.Yield()
				if sent == len(data) {
					return sent
				}
				c.mu.Lock()
				continue
			}
		}
		if irq {
			c.mu.Unlock()
			c.logKind("send", KindContendedInIRQ)
			return 0
		}
		c.park(&c.readBlocked, true)
	}
}

// TrySend attempts a non-blocking, non-synchronizing send: the full
// message (length prefix and payload together) must already fit in the
// channel's ring buffer, or nothing is written and TrySend returns 0.
func (ch *Channel) TrySend(data []byte, n int) int {
	if data == nil || n <= 0 {
		return 0
	}
	if n > len(data) {
		n = len(data)
	}
	c := ch.core()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flags&flagClosed != 0 {
		return 0
	}
	rb := c.files[ch.mine]
	if rb.Avail() < lenPrefixSize+n {
		return 0
	}
	var hdr [lenPrefixSize]byte
	putLen(hdr[:], n)
	rb.Add(hdr[:])
	rb.Add(data[:n])
	c.wake(&c.writeBlocked)
	return n
}

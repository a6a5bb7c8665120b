// Package ringbuf implements a fixed-capacity, byte-granular
// single-producer/single-consumer FIFO.
//
// An RB performs no allocation once constructed and holds no lock of its
// own: callers that share an RB across goroutines must serialize every
// Add/Peek/Get/Drop call themselves. The channel package does exactly
// that, invoking an RB only while its own core mutex is held.
package ringbuf

// RB is a fixed-capacity byte ring buffer.
//
// Avail() + Buffered() always equals Cap(); Empty() holds iff
// Buffered() == 0.
type RB struct {
	buf []byte
	w   uint64 // cumulative bytes written
	r   uint64 // cumulative bytes read
}

// New returns an RB with the given byte capacity.
func New(capacity int) *RB {
	if capacity < 0 {
		panic("ringbuf: negative capacity")
	}
	return &RB{buf: make([]byte, capacity)}
}

// Cap returns the buffer's fixed capacity in bytes.
func (rb *RB) Cap() int { return len(rb.buf) }

func (rb *RB) used() int { return int(rb.w - rb.r) }

// Buffered returns the number of unread bytes currently stored.
func (rb *RB) Buffered() int { return rb.used() }

// Avail returns the number of bytes that can still be written before the
// buffer is full.
func (rb *RB) Avail() int { return len(rb.buf) - rb.used() }

// Empty reports whether the buffer holds no unread bytes.
func (rb *RB) Empty() bool { return rb.used() == 0 }

// Add appends as many bytes of src as fit (min(len(src), Avail())) and
// returns the count actually written.
func (rb *RB) Add(src []byte) int {
	if len(rb.buf) == 0 {
		return 0
	}
	n := len(src)
	if avail := rb.Avail(); n > avail {
		n = avail
	}
	if n <= 0 {
		return 0
	}
	pos := int(rb.w % uint64(len(rb.buf)))
	first := n
	if rem := len(rb.buf) - pos; first > rem {
		first = rem
	}
	copy(rb.buf[pos:pos+first], src[:first])
	if first < n {
		copy(rb.buf[0:n-first], src[first:n])
	}
	rb.w += uint64(n)
	return n
}

// Peek copies up to len(dst) unread bytes, starting at the current read
// position, into dst without consuming them. It returns the count copied.
func (rb *RB) Peek(dst []byte) int {
	if len(rb.buf) == 0 {
		return 0
	}
	n := len(dst)
	if used := rb.used(); n > used {
		n = used
	}
	if n <= 0 {
		return 0
	}
	pos := int(rb.r % uint64(len(rb.buf)))
	first := n
	if rem := len(rb.buf) - pos; first > rem {
		first = rem
	}
	copy(dst[:first], rb.buf[pos:pos+first])
	if first < n {
		copy(dst[first:n], rb.buf[0:n-first])
	}
	return n
}

// Drop discards up to n unread bytes from the front of the buffer
// without copying them anywhere, and returns the count actually dropped.
func (rb *RB) Drop(n int) int {
	if n < 0 {
		n = 0
	}
	if used := rb.used(); n > used {
		n = used
	}
	rb.r += uint64(n)
	return n
}

// Get copies up to len(dst) unread bytes into dst and consumes them,
// equivalent to Peek followed by Drop of the same count.
func (rb *RB) Get(dst []byte) int {
	n := rb.Peek(dst)
	rb.Drop(n)
	return n
}

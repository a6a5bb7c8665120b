package csp

import (
	"sync"

	"github.com/veezhang/gocsp/ringbuf"
)

// defaultFileCapacity is the RB capacity given to each of a channel's
// two files when no WithCapacity option is supplied.
const defaultFileCapacity = 64

type chanFlags uint32

const (
	flagClosed chanFlags = 1 << iota
	flagBuffered
)

// waiter is the handle a parked party is given: a single channel that
// is closed exactly once to release whoever is waiting on it. It is the
// idiomatic Go substitute for the scheduler-level thread handle the
// source stores in a channel's blocked-party slots.
type waiter struct {
	wake chan struct{}
}

// core is the shared, heap-pinned state backing both endpoints of a
// Channel. It is allocated once by Make and only ever referenced by
// pointer, so it never needs relocation or pointer rebasing.
type core struct {
	mu    sync.Mutex
	flags chanFlags
	files [2]*ringbuf.RB

	readBlocked  *waiter // a sender parked here, waiting for a read to free space
	writeBlocked *waiter // a receiver parked here, waiting for a write to supply data

	sched  Scheduler
	log    Logger
	name   string
	stats  Stats
}

func (c *core) buffered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags&flagBuffered != 0
}

func (c *core) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags&flagClosed != 0
}

// Channel is one party's endpoint onto a two-party byte conduit.
//
// Make returns two endpoints sharing one core: the creator's (file 0 is
// "mine") and the peer's (file 1 is "mine"). This materializes both
// directional perspectives once, at construction, rather than
// recomputing "am I the creator?" on every call the way the source's
// kernel-pid comparison does.
type Channel struct {
	c      *core
	mine   int
	theirs int
}

type config struct {
	capacity int
	sched    Scheduler
	log      Logger
	name     string
}

// Option configures a Channel at construction.
type Option func(*config)

// WithCapacity sets the byte capacity of each of the channel's two
// files. The default is 64 bytes.
func WithCapacity(n int) Option {
	return func(cfg *config) { cfg.capacity = n }
}

// WithChannelScheduler sets the Scheduler a channel's Send/Recv consult
// for Yield and IsInterruptContext.
func WithChannelScheduler(s Scheduler) Option {
	return func(cfg *config) { cfg.sched = s }
}

// WithChannelLogger sets the Logger a channel uses for lifecycle events
// (Close) and for the Kind behind a Send/Recv/Drop that returned 0.
func WithChannelLogger(l Logger) Option {
	return func(cfg *config) { cfg.log = l }
}

// WithChannelName attaches a debug name to a channel, surfaced in its
// log lines.
func WithChannelName(name string) Option {
	return func(cfg *config) { cfg.name = name }
}

// Make constructs a channel and returns its two endpoints: the
// creator's and the peer's. buffered selects whether Send/Recv skip the
// rendezvous gate (true) or require it (false).
func Make(buffered bool, opts ...Option) (creator, peer *Channel) {
	cfg := config{capacity: defaultFileCapacity, sched: DefaultScheduler, log: DefaultLogger()}
	for _, o := range opts {
		o(&cfg)
	}

	c := &core{sched: cfg.sched, log: cfg.log, name: cfg.name}
	if buffered {
		c.flags |= flagBuffered
	}
	c.files[0] = ringbuf.New(cfg.capacity)
	c.files[1] = ringbuf.New(cfg.capacity)

	return &Channel{c: c, mine: 0, theirs: 1}, &Channel{c: c, mine: 1, theirs: 0}
}

func (ch *Channel) core() *core { return ch.c }

func (ch *Channel) scheduler() Scheduler {
	if ch.c.sched != nil {
		return ch.c.sched
	}
	return DefaultScheduler
}

// logKind reports, at Debug level, the typed reason an operation just
// returned its zero-byte failure value. These are expected, frequent
// outcomes (channel closed, IRQ-context contention) rather than bugs,
// so they go out quietly — Warn/Info stay reserved for the rarer
// lifecycle events (Close itself, spawn rejection, kill).
func (c *core) logKind(op string, kind Kind) {
	if c.log == nil {
		return
	}
	c.log.Debug("csp: operation returned 0", "op", op, "kind", kind, "name", c.name, "err", &Error{Kind: kind, Op: op})
}

func gateOp(isSender bool) string {
	if isSender {
		return "send"
	}
	return "recv"
}

// Close idempotently marks the channel closed and unconditionally wakes
// whatever party is parked on either slot, per the resolved Open
// Question on close semantics: a parked peer must never be left
// stranded by a close it cannot observe on its own.
func (ch *Channel) Close() {
	c := ch.c
	c.mu.Lock()
	already := c.flags&flagClosed != 0
	c.flags |= flagClosed
	var wake []*waiter
	if !already {
		if c.readBlocked != nil {
			wake = append(wake, c.readBlocked)
			c.readBlocked = nil
		}
		if c.writeBlocked != nil {
			wake = append(wake, c.writeBlocked)
			c.writeBlocked = nil
		}
	}
	c.mu.Unlock()

	for _, w := range wake {
		close(w.wake)
	}
	if !already && c.log != nil {
		c.log.Info("csp: channel closed", "name", c.name, "woke_parked", len(wake), "kind", KindClosed)
	}
}

// Stats returns a snapshot of this channel's blocking instrumentation.
func (ch *Channel) Stats() Stats {
	ch.c.mu.Lock()
	defer ch.c.mu.Unlock()
	return ch.c.stats
}

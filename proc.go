package csp

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// status bits mirror the source's CSP_FLAGS: STOP is the zero value,
// RUNNING is set for the lifetime of the dispatch trampoline, SKIP is
// reserved for a cooperative scheduler hint a host Scheduler may choose
// to honor (this package's default Scheduler does not use it).
type status int32

const (
	statusStop    status = 0
	statusSkip    status = 1 << 0
	statusRunning status = 1 << 1
)

const defaultStackSize = 8192

var nextAnonID uint64

// Context is a spawned process's persistent handle: its status flags,
// its completion signal, and — once the user function returns — its
// return value. A Context outlives the goroutine it wraps exactly as
// the source's context outlives its stack-owning process, since the
// caller may call Ret long after Wait returns.
type Context struct {
	id     uuid.UUID
	name   string
	flags  int32 // atomic, status bits
	retval atomic.Value
	done   chan struct{}
	handle ProcessHandle
	log    Logger
	sched  Scheduler
}

type retBox struct{ v any }

// Func is a process body taking only its argument.
type Func func(args any) any

// ChanFunc is a process body that also receives its channel endpoint.
type ChanFunc func(args any, ch *Channel) any

type spawnConfig struct {
	name      string
	stackSize int
	priority  int
	sched     Scheduler
	log       Logger
	ctx       context.Context
}

// SpawnOption configures a spawned process.
type SpawnOption func(*spawnConfig)

// WithName attaches a debug name to a process.
func WithName(name string) SpawnOption { return func(cfg *spawnConfig) { cfg.name = name } }

// WithStackSize sets the stack-size hint passed to the Scheduler
// Façade. It is advisory under a goroutine-backed Scheduler (the Go
// runtime grows goroutine stacks on demand) but is still validated, so
// a Scheduler that does care (e.g. one bounding real OS threads) can
// reject an unreasonable request.
func WithStackSize(n int) SpawnOption { return func(cfg *spawnConfig) { cfg.stackSize = n } }

// WithPriority sets a priority hint passed to the Scheduler Façade.
func WithPriority(p int) SpawnOption { return func(cfg *spawnConfig) { cfg.priority = p } }

// WithProcessScheduler sets the Scheduler used to create this process.
func WithProcessScheduler(s Scheduler) SpawnOption { return func(cfg *spawnConfig) { cfg.sched = s } }

// WithProcessLogger sets the Logger used for this process's lifecycle
// diagnostics (spawn rejection and Kill).
func WithProcessLogger(l Logger) SpawnOption { return func(cfg *spawnConfig) { cfg.log = l } }

// WithContext ties a process to the cancellation of ctx: when ctx is
// done, the process is Kill'd the same as if a caller had done so
// directly. It does not interrupt a body already blocked inside user
// code outside of this package's own blocking primitives — cancellation
// here is the same best-effort, cooperative signal Kill always is.
func WithContext(ctx context.Context) SpawnOption {
	return func(cfg *spawnConfig) { cfg.ctx = ctx }
}

// Spawn starts fn running as a new process and returns its Context, or
// nil if the Scheduler Façade rejected the request (see KindSpawnRejected).
func Spawn(fn Func, args any, opts ...SpawnOption) *Context {
	return spawn(opts, func(ctx *Context) {
		ctx.retval.Store(retBox{fn(args)})
	})
}

// SpawnWithChannel starts fn running as a new process, handing it ch as
// its channel endpoint, and returns its Context, or nil on rejection.
func SpawnWithChannel(fn ChanFunc, args any, ch *Channel, opts ...SpawnOption) *Context {
	return spawn(opts, func(ctx *Context) {
		ctx.retval.Store(retBox{fn(args, ch)})
	})
}

func spawn(opts []SpawnOption, body func(ctx *Context)) *Context {
	cfg := spawnConfig{stackSize: defaultStackSize, sched: DefaultScheduler, log: DefaultLogger()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.name == "" {
		cfg.name = fmt.Sprintf("csp-%d", atomic.AddUint64(&nextAnonID, 1))
	}

	ctx := &Context{
		id:    uuid.New(),
		name:  cfg.name,
		done:  make(chan struct{}),
		log:   cfg.log,
		sched: cfg.sched,
	}
	atomic.StoreInt32(&ctx.flags, int32(statusRunning))

	handle, err := cfg.sched.CreateProcess(cfg.stackSize, cfg.priority, cfg.name, func() {
		cfg.sched.SwitchToPriority(cfg.priority)
		dispatch(ctx, body)
	})
	if err != nil {
		spawnErr := &Error{Kind: KindSpawnRejected, Op: "spawn", Err: err}
		if cfg.log != nil {
			cfg.log.Warn("csp: spawn rejected", "name", cfg.name, "kind", spawnErr.Kind, "err", spawnErr)
		}
		return nil
	}
	ctx.handle = handle
	if cfg.ctx != nil {
		go watchContext(cfg.ctx, ctx)
	}
	return ctx
}

// watchContext runs for the lifetime of a process spawned with
// WithContext, killing it early if the supplied context is canceled
// before the process finishes on its own.
func watchContext(parent context.Context, ctx *Context) {
	select {
	case <-parent.Done():
		Kill(ctx)
	case <-ctx.done:
	}
}

// dispatch is the trampoline every spawned process runs under: it
// invokes body (which stores the user function's result), flips the
// status to stopped and closes done, then unconditionally calls
// Terminate — mirroring the source's _csp trampoline, which stashes the
// return value, sets CSP_STOP, and ends in a terminate-self call rather
// than a plain return.
func dispatch(ctx *Context, body func(ctx *Context)) {
	defer func() {
		atomic.StoreInt32(&ctx.flags, int32(statusStop))
		close(ctx.done)
	}()
	body(ctx)

	sched := ctx.sched
	if sched == nil {
		sched = DefaultScheduler
	}
	sched.Terminate()
}

// Running reports whether ctx's process has not yet returned. The call
// yields once first, so a polling caller cannot livelock a cooperatively
// scheduled peer that never gets a turn.
func Running(ctx *Context) bool {
	sched := ctx.sched
	if sched == nil {
		sched = DefaultScheduler
	}
	sched.Yield()
	return atomic.LoadInt32(&ctx.flags)&int32(statusRunning) != 0
}

// Wait blocks until ctx's process has returned. Unlike Running, it
// parks the caller on the context's internal completion channel rather
// than spin-polling.
func Wait(ctx *Context) {
	<-ctx.done
}

// Kill marks ctx stopped and asks the Scheduler Façade to best-effort
// terminate its process. Go provides no true preemptive goroutine
// termination, so Kill is cooperative signaling intended for error
// paths only; the normal lifecycle is self-termination via dispatch.
func Kill(ctx *Context) {
	atomic.StoreInt32(&ctx.flags, int32(statusStop))
	sched := ctx.sched
	if sched == nil {
		sched = DefaultScheduler
	}
	if ctx.handle != nil {
		sched.Kill(ctx.handle)
	}
	if ctx.log != nil {
		ctx.log.Info("csp: process killed", "name", ctx.name)
	}
}

// Ret returns the value ctx's user function returned. It is nil until
// the process has stopped.
func Ret(ctx *Context) any {
	if v := ctx.retval.Load(); v != nil {
		return v.(retBox).v
	}
	return nil
}

// Name returns ctx's debug name.
func (ctx *Context) Name() string { return ctx.name }

// ID returns ctx's process identity.
func (ctx *Context) ID() uuid.UUID { return ctx.id }
